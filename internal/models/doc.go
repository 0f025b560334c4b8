// Package models defines the catalog entities shared by the sync engine, the remote song service and the local stores.
//
// The package contains:
//
//   - [Song] : a single track record as returned by the iTunes Search API, tagged with a [Genre]
//   - [Songs] : the batch wrapper mirroring the search response body
//   - [Genre] : the partition key for every cache read and write
//
// Records coming off the wire may omit any of the optional text attributes. [RemoveEmptyFields] turns those into empty
// strings so that the stores never see an absent value, and [Song.Validate] enforces that before every write.
package models
