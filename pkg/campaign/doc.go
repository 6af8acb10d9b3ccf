// Package campaign turns one authored message into many individual
// notifications. A batch is a literal list of notifications sent
// together; a campaign describes an audience and a schedule, and the
// orchestrator expands it lazily into one notification per resolved
// user at send time.
//
// Expansion is a pull iterator, so a million-user campaign never
// materializes a million notifications in memory. Cancelling a
// campaign stops future expansion; units already handed to the
// dispatcher keep flowing.
package campaign
