package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&ServerShot{},
	&KillCredit{},
}

////////////////////////
// SESSION MODELS
////////////////////////

// Session is one replayed or live run of the server with the plugin loaded
type Session struct {
	gorm.Model
	Name      string    `json:"name" gorm:"size:127"`
	Plugin    string    `json:"plugin" gorm:"size:64"`
	StartTime time.Time `json:"startTime"`
	Angle     float64   `json:"angle"`
}

func (*Session) TableName() string {
	return "sessions"
}

////////////////////////
// LEDGER MODELS
////////////////////////

// ServerShot is a shot spawned by the server on behalf of a flag carrier
type ServerShot struct {
	ID        uint              `json:"id" gorm:"primarykey;autoIncrement;"`
	Time      time.Time         `json:"time" gorm:"index:idx_servershot_time"`
	SessionID uint              `json:"sessionId" gorm:"index:idx_servershot_session_id"`
	Session   Session           `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	GUID      uint32            `json:"guid" gorm:"index:idx_servershot_guid"`
	Slot      int               `json:"slot"`
	Tag       string            `json:"tag" gorm:"size:8"`
	OwnerID   int               `json:"ownerId"`
	Team      string            `json:"team" gorm:"size:16"`
	PosX      float64           `json:"posX"`
	PosY      float64           `json:"posY"`
	PosZ      float64           `json:"posZ"`
	VelX      float64           `json:"velX"`
	VelY      float64           `json:"velY"`
	VelZ      float64           `json:"velZ"`
	Meta      datatypes.JSONMap `json:"meta"`
}

func (*ServerShot) TableName() string {
	return "server_shots"
}

// KillCredit is a death as scored after plugins had their say
type KillCredit struct {
	ID                 uint              `json:"id" gorm:"primarykey;autoIncrement;"`
	Time               time.Time         `json:"time" gorm:"index:idx_killcredit_time"`
	SessionID          uint              `json:"sessionId" gorm:"index:idx_killcredit_session_id"`
	Session            Session           `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;foreignkey:SessionID;"`
	VictimID           int               `json:"victimId"`
	VictimTeam         string            `json:"victimTeam" gorm:"size:16"`
	KillerID           int               `json:"killerId"`
	KillerTeam         string            `json:"killerTeam" gorm:"size:16"`
	OriginalKillerID   int               `json:"originalKillerId"`
	OriginalKillerTeam string            `json:"originalKillerTeam" gorm:"size:16"`
	ShotGUID           uint32            `json:"shotGuid"`
	ShotSlot           int               `json:"shotSlot"`
	Flag               string            `json:"flag" gorm:"size:8"`
	Reattributed       bool              `json:"reattributed"`
	Meta               datatypes.JSONMap `json:"meta"`
}

func (*KillCredit) TableName() string {
	return "kill_credits"
}
