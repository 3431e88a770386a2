package client

import (
	"github.com/ILara-wd/firebase-remote-config/client/internal/types"
	"github.com/ILara-wd/firebase-remote-config/internal/model"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	Health         = types.Health
	ProjectInfo    = types.ProjectInfo
	Template       = types.Template
	ConfigEntry    = types.ConfigEntry
	MutationResult = types.MutationResult

	Parameter     = model.Parameter
	DefaultValue  = model.DefaultValue
	ValueType     = model.ValueType
	Version       = model.Version
	VersionNumber = model.VersionNumber
	Revision      = model.Revision
)

// Value type tags accepted by UpdateConfigs.
const (
	ValueTypeString  = model.ValueTypeString
	ValueTypeNumber  = model.ValueTypeNumber
	ValueTypeBoolean = model.ValueTypeBoolean
	ValueTypeJSON    = model.ValueTypeJSON
)
