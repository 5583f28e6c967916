// internal/repository/repository.go

// Package repository holds the gorm-backed persistence layer. Each logical
// table gets one repository behind an *Iface interface so services can be
// tested against generated mocks. Methods translate gorm's record-not-found
// into domain sentinels; callers never see gorm error values.
package repository
