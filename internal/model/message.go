package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ストアに書き込む前に強制される長さ制限
const (
	MaxTextLength = 500
	MaxUserLength = 20
)

// Message represents a chat message. The store assigns ID, CreatedAt and
// UpdatedAt at write time; records are never mutated afterwards.
type Message struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Text      string             `json:"text" bson:"text"`
	User      string             `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
