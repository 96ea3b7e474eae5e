package catalogdb

import (
	"time"

	"github.com/uptrace/bun"
)

// Area is one competition area (e.g. Matemáticas).
type Area struct {
	bun.BaseModel `bun:"table:areas,alias:a"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Code          string    `bun:"code,unique,notnull" json:"code"`
	Name          string    `bun:"name,unique,notnull" json:"name"`
	Active        bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Level is one competition level (e.g. Secundaria).
type Level struct {
	bun.BaseModel `bun:"table:levels,alias:l"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	Code          string    `bun:"code,unique,notnull" json:"code"`
	Name          string    `bun:"name,unique,notnull" json:"name"`
	Active        bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Category is an offered (area, level, modality) combination. Enrollment is
// only accepted for active categories.
type Category struct {
	bun.BaseModel `bun:"table:categories,alias:c"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	AreaID        int64     `bun:"area_id,notnull" json:"area_id"`
	LevelID       int64     `bun:"level_id,notnull" json:"level_id"`
	Modality      string    `bun:"modality,notnull" json:"modality"`
	Active        bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`

	Area  *Area  `bun:"rel:belongs-to,join:area_id=id" json:"-"`
	Level *Level `bun:"rel:belongs-to,join:level_id=id" json:"-"`
}
