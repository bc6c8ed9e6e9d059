package specification

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDialogID struct {
	DialogID uuid.UUID
}

func (s ByDialogID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("dialog_id = ?", s.DialogID)
}

// ByScopes filters knowledge chunks to the given knowledge bases or dialogs
type ByScopes struct {
	Scopes []string
}

func (s ByScopes) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scope IN ?", s.Scopes)
}

type ByFileID struct {
	Scope  string
	FileID string
}

func (s ByFileID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("scope = ? AND file_id = ?", s.Scope, s.FileID)
}

// ByLlmKind separates chat models from embedding models
type ByLlmKind struct {
	Kind string
}

func (s ByLlmKind) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("kind = ?", s.Kind)
}

// ByNameContains is a case-insensitive substring match on name
type ByNameContains struct {
	Term string
}

func (s ByNameContains) Apply(db *gorm.DB) *gorm.DB {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s.Term)
	return db.Where("name ILIKE ?", "%"+escaped+"%")
}

// ReferencesMcpServer finds agents whose server list holds the id
type ReferencesMcpServer struct {
	ID uuid.UUID
}

func (s ReferencesMcpServer) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("mcp_server_ids @> ?::jsonb", fmt.Sprintf("[%q]", s.ID.String()))
}

// OrderByName sorts alphabetically
type OrderByName struct{}

func (OrderByName) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("name ASC")
}
