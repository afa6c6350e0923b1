package id

import "github.com/google/uuid"

// UUIDGenerator hands out random (version 4) UUID strings.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }
