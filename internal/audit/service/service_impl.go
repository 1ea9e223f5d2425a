package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/mglearn/checkout/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Record(ctx context.Context, transactionID string, action string, response []byte) error {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return auditdomain.ErrInvalidTransaction
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	// A failed refund is recorded with an empty body; normalize it to a
	// valid JSON document so the column stays queryable.
	if len(response) == 0 || !json.Valid(response) {
		response = []byte("{}")
	}

	entry := auditdomain.GatewayResponse{
		ID:            s.genID.Generate(),
		TransactionID: transactionID,
		Action:        action,
		Response:      datatypes.JSON(response),
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to record gateway response",
			zap.String("transaction_id", transactionID),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, transactionID string) ([]auditdomain.GatewayResponse, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, auditdomain.ErrInvalidTransaction
	}
	return s.repo.List(ctx, s.db, transactionID)
}
