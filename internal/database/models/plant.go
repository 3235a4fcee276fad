package models

import (
	"time"

	"github.com/google/uuid"
)

type Stage string

const (
	StageSeedling Stage = "seedling"
	StageGrowing  Stage = "growing"
	StageMature   Stage = "mature"
	StageBlooming Stage = "blooming"
)

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodSad     Mood = "sad"
	MoodExcited Mood = "excited"
	MoodSleepy  Mood = "sleepy"
)

// Default stats for a newly created plant.
const (
	DefaultHealth    = 80
	DefaultHappiness = 75
	DefaultGrowth    = 25
	DefaultName      = "Sprouty"
)

type Plant struct {
	Base
	Name      string `gorm:"not null" json:"name"`
	Health    int    `gorm:"default:80" json:"health"`
	Happiness int    `gorm:"default:75" json:"happiness"`
	Growth    int    `gorm:"default:25" json:"growth"`
	Stage     Stage  `gorm:"default:'seedling'" json:"stage"`
	Mood      Mood   `gorm:"default:'happy'" json:"mood"`

	// Version guards the care/decay read-modify-write cycle.
	Version int64 `gorm:"not null;default:0" json:"-"`

	LastWatered time.Time `json:"last_watered"`
	LastFed     time.Time `json:"last_fed"`
	LastPlayed  time.Time `json:"last_played"`

	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	// Relationships
	Owner       *User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members     []PlantMember `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
	CareActions []CareAction  `gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE" json:"care_actions,omitempty"`
}

func (Plant) TableName() string {
	return "plants"
}
