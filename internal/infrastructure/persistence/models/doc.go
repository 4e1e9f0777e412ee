// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain aggregates so the domain carries no ORM tags.
//
// Each model provides ToDomain and a <Name>ModelFromDomain constructor.
// Tables whose unique keys are tenant-scoped declare TenantID themselves so it
// can lead the composite index.
package models
