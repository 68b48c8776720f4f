package domain

// Document keys of the persisted Flow. They are the interchange format shared with
// every host that stores flows, so they never change.
const (
	KeyID               = "id"
	KeyName             = "name"
	KeyDescription      = "description"
	KeyMenus            = "menus"
	KeySystemMessages   = "systemMessages"
	KeyClientMessages   = "clientMessages"
	KeyDecisions        = "decisions"
	KeyDelays           = "delays"
	KeyStartNode        = "startNode"
	KeyEndNodes         = "endNodes"
	KeyConnections      = "connections"
	KeyValidationStatus = "validationStatus"
	KeyCreatedAt        = "createdAt"
	KeyUpdatedAt        = "updatedAt"
	KeyOptions          = "options"
	KeyPosition         = "position"
)

// flowKeys are the top-level keys understood by this package. Everything else
// ends up in Flow.Extra.
var flowKeys = map[string]struct{}{
	KeyID: {}, KeyName: {}, KeyDescription: {}, KeyMenus: {}, KeySystemMessages: {},
	KeyClientMessages: {}, KeyDecisions: {}, KeyDelays: {}, KeyStartNode: {},
	KeyEndNodes: {}, KeyConnections: {}, KeyValidationStatus: {}, KeyCreatedAt: {},
	KeyUpdatedAt: {},
}
