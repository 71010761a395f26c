package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"repflow/workout-app/internal/repository"
	"repflow/workout-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrShareImageMissing  = errors.New("workout has no share image")
	ErrShareContentType   = errors.New("invalid or missing image content type")
	ErrShareURLGeneration = errors.New("failed to generate share image URL")
)

// ShareImageUpload is the presigned upload grant returned to the client.
type ShareImageUpload struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// ShareService handles workout summary share images. This is surrounding
// application code, not part of the session engine: the client renders the
// image, uploads it via a presigned URL, and shares a temporary download
// link. The engine's data is only read to verify ownership.
type ShareService interface {
	RequestShareImageURL(ctx context.Context, ownerID, workoutID primitive.ObjectID, contentType string) (*ShareImageUpload, error)
	GetShareImageURL(ctx context.Context, ownerID, workoutID primitive.ObjectID) (string, error)
}

// shareService implements the ShareService interface.
type shareService struct {
	workoutRepo repository.WorkoutRepository
	fileStorage storage.FileStorage
}

// NewShareService creates a new instance of shareService.
func NewShareService(workoutRepo repository.WorkoutRepository, fileStorage storage.FileStorage) ShareService {
	return &shareService{
		workoutRepo: workoutRepo,
		fileStorage: fileStorage,
	}
}

// RequestShareImageURL issues a presigned PUT URL for a workout's share image
// and records the object key on the workout.
func (s *shareService) RequestShareImageURL(ctx context.Context, ownerID, workoutID primitive.ObjectID, contentType string) (*ShareImageUpload, error) {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, ErrShareContentType
	}
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.OwnerID != ownerID {
		return nil, ErrWorkoutAccessDenied
	}

	ext := "png"
	if parts := strings.Split(contentType, "/"); len(parts) == 2 && parts[1] != "" {
		ext = parts[1]
	}
	objectKey := path.Join("share", ownerID.Hex(), workoutID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrShareURLGeneration
	}

	workout.ShareImageKey = objectKey
	if err := s.workoutRepo.Update(ctx, workout); err != nil {
		return nil, err
	}
	return &ShareImageUpload{UploadURL: uploadURL, ObjectKey: objectKey}, nil
}

// GetShareImageURL returns a temporary download URL for the uploaded image.
func (s *shareService) GetShareImageURL(ctx context.Context, ownerID, workoutID primitive.ObjectID) (string, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrWorkoutNotFound
		}
		return "", err
	}
	if workout.OwnerID != ownerID {
		return "", ErrWorkoutAccessDenied
	}
	if workout.ShareImageKey == "" {
		return "", ErrShareImageMissing
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, workout.ShareImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrShareURLGeneration
	}
	return url, nil
}
