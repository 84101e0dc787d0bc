// Package records keeps the signed-in user's collection of generated QR
// codes consistent with the backend.
//
// The collection is newest first. Records enter it from a full history
// load or from a confirmed create, and leave it only after the backend
// confirms a delete. Every backend object passes through Normalize before
// it is stored, whatever its field naming.
//
// Create and Delete may run concurrently with each other and with Load.
// Each completion touches only the id it concerns, so the final collection
// holds exactly the ids created and not deleted, whatever the arrival
// order. Reset discards the collection together with the results of every
// operation that started before it.
package records
