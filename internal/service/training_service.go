package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"timeguard/internal/predictor"
	"timeguard/internal/repository"
)

// RetrainSummary counts the outcome of a retrain sweep.
type RetrainSummary struct {
	Trained int
	Skipped int
	Failed  int
}

// TrainingService retrains users' models outside the completion flow.
type TrainingService struct {
	userRepo *repository.UserRepository
	trainer  *predictor.Trainer
}

func NewTrainingService(userRepo *repository.UserRepository, trainer *predictor.Trainer) *TrainingService {
	return &TrainingService{userRepo: userRepo, trainer: trainer}
}

// RetrainUser trains a single user's model.
func (s *TrainingService) RetrainUser(ctx context.Context, userID uint) (bool, error) {
	return s.trainer.Train(ctx, userID)
}

// RetrainAll trains every known user. Users with too little history are
// skipped; a failure for one user does not stop the sweep.
func (s *TrainingService) RetrainAll(ctx context.Context) (RetrainSummary, error) {
	var summary RetrainSummary
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return summary, fmt.Errorf("list users: %w", err)
	}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		trained, err := s.trainer.Train(ctx, user.ID)
		switch {
		case err != nil:
			summary.Failed++
			log.WithField("user", user.ID).WithError(err).Error("retrain failed")
		case trained:
			summary.Trained++
		default:
			summary.Skipped++
		}
	}
	log.WithFields(log.Fields{
		"trained": summary.Trained,
		"skipped": summary.Skipped,
		"failed":  summary.Failed,
	}).Info("retrain sweep finished")
	return summary, nil
}
