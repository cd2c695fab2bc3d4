package maskstore

import (
	"github.com/cyclopcam/dbh"
)

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// A Mask row indexes one cached probability mask blob.
type Mask struct {
	BaseModel
	ImageID   string      `json:"imageID"`
	Width     int         `json:"width"`
	Height    int         `json:"height"`
	Classes   int         `json:"classes"` // Number of channels in the blob
	CreatedAt dbh.IntTime `json:"createdAt"`
}
