// Package models contains the JSON persistence records stored in the ledger
// collections. Records are separate from domain entities so the domain stays
// free of storage concerns and so records written by earlier versions of the
// application, which lack currencies, versions, and order references, still
// load.
//
// Each record type has ToDomain and FromDomain mappers; repositories only
// ever write records through FromDomain.
package models
