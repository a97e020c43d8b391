package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Profile struct {
	UserID   string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName string `gorm:"column:full_name;type:text" json:"full_name"`
	Headline string `gorm:"column:headline;type:text" json:"headline"`

	// plain text extracted from the uploaded resume
	ResumeText string `gorm:"column:resume_text;type:text" json:"resume_text"`

	Skills pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	// JSONB, structure owned by the client
	Experience  datatypes.JSON `gorm:"column:experience;type:jsonb" json:"experience"`
	Education   datatypes.JSON `gorm:"column:education;type:jsonb" json:"education"`
	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`

	// resume embedding, filled by the offline embedder when present
	ResumeEmbedding pgvector.Vector `gorm:"column:resume_embedding;type:vector(768)" json:"resume_embedding"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// Summary renders the candidate context passed to the generation prompts.
func (p *Profile) Summary() string {
	if p == nil {
		return "No candidate profile on file."
	}

	var sb strings.Builder
	if p.FullName != "" {
		sb.WriteString("Candidate: " + p.FullName + "\n")
	}
	if p.Headline != "" {
		sb.WriteString("Headline: " + p.Headline + "\n")
	}
	if len(p.Skills) > 0 {
		sb.WriteString("Skills: " + strings.Join(p.Skills, ", ") + "\n")
	}
	if p.ResumeText != "" {
		txt := p.ResumeText
		const maxResume = 4000
		if len(txt) > maxResume {
			txt = txt[:maxResume]
		}
		sb.WriteString("Resume:\n" + txt + "\n")
	}
	if sb.Len() == 0 {
		return "No candidate profile on file."
	}
	return sb.String()
}
