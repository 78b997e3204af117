// Package protocol defines the JSON messages exchanged over the /ws socket
// and the /api/simulate endpoint.
//
// Every message is an [Envelope] with a type and a payload. Clients send
// [TypeStartSimulation]; the server answers with [TypeSimulationData] or
// [TypeError].
package protocol
