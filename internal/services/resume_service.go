package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hireprep/hireprep/internal/models"
	pgrepo "github.com/hireprep/hireprep/internal/repositories/postgres"
	"github.com/hireprep/hireprep/internal/storage"
	"github.com/hireprep/hireprep/internal/utils"
)

type ResumeService interface {
	// Upload stores the file in the bucket and records metadata. When the
	// ingestion collaborator already extracted plain text, it lands on the
	// profile so question/feedback prompts can use it.
	Upload(ctx context.Context, userID, fileName string, fileSize int, mimeType, objectKey string, r io.Reader, extractedText string) (*models.ResumeFile, error)

	// DownloadURL returns a short-lived signed URL for the user's latest
	// resume object.
	DownloadURL(ctx context.Context, userID string) (string, error)
}

type resumeService struct {
	files    pgrepo.ResumeFileRepository
	profiles pgrepo.ProfileRepository
	uploader storage.Uploader
	signer   storage.Signer
}

func NewResumeService(files pgrepo.ResumeFileRepository, profiles pgrepo.ProfileRepository, uploader storage.Uploader, signer storage.Signer) ResumeService {
	return &resumeService{files: files, profiles: profiles, uploader: uploader, signer: signer}
}

func (s *resumeService) Upload(ctx context.Context, userID, fileName string, fileSize int, mimeType, objectKey string, r io.Reader, extractedText string) (*models.ResumeFile, error) {
	const op = "ResumeService.Upload"

	if userID == "" || objectKey == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and object_key are required", nil)
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}

	storedKey, err := s.uploader.Upload(ctx, objectKey, mimeType, r)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}

	row := &models.ResumeFile{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   fileName,
		ObjectKey:  storedKey,
		FileSize:   fileSize,
		MimeType:   mimeType,
		UploadedAt: time.Now().UTC(),
	}

	if err := s.files.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist resume metadata", err)
	}

	if extractedText != "" {
		if err := s.profiles.SetResumeText(ctx, userID, extractedText); err != nil {
			// metadata is saved; losing the extracted text only degrades
			// prompt context
			return row, utils.E(utils.CodeInternal, op, "failed to store extracted resume text", err)
		}
	}
	return row, nil
}

func (s *resumeService) DownloadURL(ctx context.Context, userID string) (string, error) {
	const op = "ResumeService.DownloadURL"

	if userID == "" {
		return "", utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	if s.signer == nil {
		return "", utils.E(utils.CodeInternal, op, "signer is not configured", nil)
	}

	row, err := s.files.LatestByUser(ctx, userID)
	if err != nil {
		return "", utils.E(utils.CodeNotFound, op, "no resume on file", err)
	}

	url, err := s.signer.SignedGetURL(ctx, row.ObjectKey, 15*time.Minute)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "failed to sign download url", err)
	}
	return url, nil
}
