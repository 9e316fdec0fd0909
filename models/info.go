package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	InfoTemplatesFolder = "core/info_sub/"
	DefaultInfoTemplate = "default_info"
)

// InfoPage is an admin-defined static page listed in the navbar.
type InfoPage struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ViewName     string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"view_name"`
	Title        string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"title"`
	TemplateName string    `gorm:"type:varchar(128);not null" json:"template_name"`
	Body         string    `gorm:"type:text" json:"body"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *InfoPage) BeforeSave(tx *gorm.DB) error {
	p.ApplyDefaults()
	return nil
}

// ApplyDefaults fills an empty title from the view name and resolves the
// template into the info templates folder. It is idempotent.
func (p *InfoPage) ApplyDefaults() {
	if strings.TrimSpace(p.Title) == "" {
		p.Title = Capwords(p.ViewName)
	}
	name := strings.TrimSpace(p.TemplateName)
	if name == "" {
		name = DefaultInfoTemplate
	}
	if !strings.HasPrefix(name, InfoTemplatesFolder) {
		name = InfoTemplatesFolder + name + ".html"
	}
	p.TemplateName = name
}

// Capwords upper-cases the first letter of every word, lower-cases the rest
// and joins the words with single spaces.
func Capwords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// InfoPageRequest is the admin payload for creating an info page.
type InfoPageRequest struct {
	ViewName     string `json:"view_name" binding:"required,max=64"`
	Title        string `json:"title" binding:"max=64"`
	TemplateName string `json:"template_name" binding:"max=64"`
	Body         string `json:"body"`
}

// NavEntry is one navbar link.
type NavEntry struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
