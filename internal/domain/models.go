// Package domain defines the persistence models and value types of the
// horoscope service. The GORM-mapped types (BirthDate, HoroscopeHistory) form
// the durable data layer; Reading, Scores and User are plain values passed
// between the generator, the cache and the HTTP layer.
package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Placeholder replaces any narrative section that came back empty.
const Placeholder = "No horoscope available."

// Scores rates three life aspects on a 0..100 scale.
type Scores struct {
	Health int `json:"health" example:"80"`
	Love   int `json:"love"   example:"75"`
	Career int `json:"career" example:"90"`
}

// DefaultScores is used whenever score extraction fails.
var DefaultScores = Scores{Health: 70, Love: 70, Career: 70}

// Valid reports whether every score lies in [0, 100].
func (s Scores) Valid() bool {
	in := func(v int) bool { return v >= 0 && v <= 100 }
	return in(s.Health) && in(s.Love) && in(s.Career)
}

// Reading is one generated horoscope: a sign, the calendar day it is for,
// three scores and five narrative sections.
type Reading struct {
	Sign                 string `json:"sign"                 example:"Capricorn"`
	Date                 string `json:"date"                 example:"2024-07-27"`
	Scores               Scores `json:"scores"`
	Overview             string `json:"overview"             example:"Emotions run deep today..."`
	LoveAndRelationships string `json:"loveAndRelationships" example:"Open conversations bring you closer..."`
	CareerAndStudies     string `json:"careerAndStudies"     example:"A steady pace pays off..."`
	HealthAndWellbeing   string `json:"healthAndWellbeing"   example:"Make time for rest..."`
	MoneyAndFinances     string `json:"moneyAndFinances"     example:"Review recurring expenses..."`
}

// MaxUserIDLen bounds user ids to the width of the user_id columns.
const MaxUserIDLen = 64

// User is the slice of the caller's profile the engine needs. It is
// supplied by the identity layer and never persisted here.
type User struct {
	ID          string
	DateOfBirth string     // YYYY-MM-DD, empty when unknown
	BirthTime   string     // HH:MM:SS, empty when unknown
	ZodiacSign  ZodiacSign // stored sign, may be empty
}

// BirthDate links a user to one specific date of birth and its sign.
// There is at most one row per (user_id, date_of_birth).
type BirthDate struct {
	ID          string     `json:"id"          gorm:"type:char(36);primaryKey"`
	UserID      string     `json:"userId"      gorm:"type:varchar(64);not null;uniqueIndex:ux_birth_dates_user_dob,priority:1"`
	DateOfBirth string     `json:"dateOfBirth" gorm:"type:char(10);not null;uniqueIndex:ux_birth_dates_user_dob,priority:2"`
	ZodiacSign  ZodiacSign `json:"zodiacSign"  gorm:"type:varchar(16);not null;default:'UNKNOWN'"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// TableName returns the database table name for BirthDate.
func (BirthDate) TableName() string { return "user_birth_dates" }

// HoroscopeHistory is the persisted form of a Reading. At most one row exists
// per (user_id, birth_date_id, date); IsSave only ever flips to true. Rows
// without a birth-date record are kept unique per (user_id, date) by a
// partial index, since NULLs never collide in the composite one.
type HoroscopeHistory struct {
	ID                   string                     `json:"id"                   gorm:"type:char(36);primaryKey"`
	UserID               string                     `json:"userId"               gorm:"type:varchar(64);not null;index;uniqueIndex:ux_history_user_birth_date_day,priority:1;uniqueIndex:ux_history_user_day_no_birth_date,priority:1,where:birth_date_id IS NULL"`
	BirthDateID          *string                    `json:"birthDateId"          gorm:"type:char(36);uniqueIndex:ux_history_user_birth_date_day,priority:2"`
	Sign                 string                     `json:"sign"                 gorm:"type:varchar(16);not null"`
	Date                 string                     `json:"date"                 gorm:"type:char(10);not null;uniqueIndex:ux_history_user_birth_date_day,priority:3;uniqueIndex:ux_history_user_day_no_birth_date,priority:2,where:birth_date_id IS NULL"`
	Scores               datatypes.JSONType[Scores] `json:"scores"               gorm:"not null"`
	Overview             string                     `json:"overview"             gorm:"type:text;not null"`
	LoveAndRelationships string                     `json:"loveAndRelationships" gorm:"type:text;not null"`
	CareerAndStudies     string                     `json:"careerAndStudies"     gorm:"type:text;not null"`
	HealthAndWellbeing   string                     `json:"healthAndWellbeing"   gorm:"type:text;not null"`
	MoneyAndFinances     string                     `json:"moneyAndFinances"     gorm:"type:text;not null"`
	IsSave               bool                       `json:"isSave"               gorm:"not null;default:false;index"`
	CreatedAt            time.Time                  `json:"createdAt"            gorm:"index"`

	// History rows are deleted with their BirthDate.
	BirthDate *BirthDate `json:"-" gorm:"foreignKey:BirthDateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for HoroscopeHistory.
func (HoroscopeHistory) TableName() string { return "horoscope_history" }

// NewHoroscopeHistory builds an unsaved history row from a generated reading.
func NewHoroscopeHistory(userID string, birthDateID *string, r Reading) *HoroscopeHistory {
	return &HoroscopeHistory{
		UserID:               userID,
		BirthDateID:          birthDateID,
		Sign:                 r.Sign,
		Date:                 r.Date,
		Scores:               datatypes.NewJSONType(r.Scores),
		Overview:             r.Overview,
		LoveAndRelationships: r.LoveAndRelationships,
		CareerAndStudies:     r.CareerAndStudies,
		HealthAndWellbeing:   r.HealthAndWellbeing,
		MoneyAndFinances:     r.MoneyAndFinances,
	}
}

// Reading returns the reading stored in h.
func (h HoroscopeHistory) Reading() Reading {
	return Reading{
		Sign:                 h.Sign,
		Date:                 h.Date,
		Scores:               h.Scores.Data(),
		Overview:             h.Overview,
		LoveAndRelationships: h.LoveAndRelationships,
		CareerAndStudies:     h.CareerAndStudies,
		HealthAndWellbeing:   h.HealthAndWellbeing,
		MoneyAndFinances:     h.MoneyAndFinances,
	}
}
