package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/erc7824/typedsigner/pkg/sign"
)

const (
	defaultDBPath = "typedsigner.db"
	defaultLimit  = 20
)

type Storage struct {
	db *gorm.DB
}

func NewStorage(path string) (*Storage, error) {
	if path == "" {
		path = defaultDBPath
	}

	return open(fmt.Sprintf("file:%s?cache=shared", path))
}

func open(dsn string) (*Storage, error) {
	dial := sqlite.Open(dsn)
	dbConf := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
	db, err := gorm.Open(dial, dbConf)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := db.AutoMigrate(&SignatureDTO{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database schema: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SignatureDTO is one signing operation. PrimaryType is empty for plain
// message signatures.
type SignatureDTO struct {
	ID          string    `gorm:"column:id;primaryKey"`
	RequestID   string    `gorm:"column:request_id;not null;index"`
	Signer      string    `gorm:"column:signer;not null;index"`
	PrimaryType string    `gorm:"column:primary_type"`
	Digest      string    `gorm:"column:digest;not null;index"`
	Payload     string    `gorm:"column:payload;not null"`
	R           string    `gorm:"column:r;not null"`
	S           string    `gorm:"column:s;not null"`
	V           string    `gorm:"column:v;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (SignatureDTO) TableName() string {
	return "signatures"
}

func (s *Storage) AddSignature(primaryType, payload string, res *sign.SignRawPayloadResult) (*SignatureDTO, error) {
	if res == nil {
		return nil, fmt.Errorf("signature result cannot be nil")
	}

	dto := SignatureDTO{
		ID:          uuid.NewString(),
		RequestID:   res.RequestID,
		Signer:      res.SignedBy,
		PrimaryType: primaryType,
		Digest:      res.Hash.Hex(),
		Payload:     payload,
		R:           res.R,
		S:           res.S,
		V:           res.V,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.Create(&dto).Error; err != nil {
		return nil, fmt.Errorf("failed to add signature: %w", err)
	}

	return &dto, nil
}

// ListSignatures returns the most recent signatures first.
func (s *Storage) ListSignatures(limit int) ([]SignatureDTO, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	var sigs []SignatureDTO
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&sigs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve signatures: %w", err)
	}
	return sigs, nil
}

func (s *Storage) GetSignatureByDigest(digest string) (*SignatureDTO, error) {
	var sig SignatureDTO
	if err := s.db.Where("digest = ?", digest).Order("created_at DESC").First(&sig).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("signature not found for digest %s", digest)
		}
		return nil, fmt.Errorf("failed to retrieve signature: %w", err)
	}
	return &sig, nil
}
