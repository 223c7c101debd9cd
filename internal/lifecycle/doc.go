// Package lifecycle owns the trash/archive/private state machine and the
// timed expiry of trashed records. Flag transitions are single atomic
// updates in the index store; expired records are swept on a schedule and
// their backing files handed to a deletion collaborator.
package lifecycle
