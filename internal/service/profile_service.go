package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
	"github.com/noah-isme/attendance-tracker-api/pkg/storage"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvatar(ctx context.Context, id, avatarURL string) error
}

type avatarStore interface {
	SaveLimited(name string, r io.Reader, maxBytes int64) (string, error)
	Delete(name string) error
}

// avatarSide bounds both dimensions of a stored avatar.
const avatarSide = 512

var avatarFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
	"image/gif":  imaging.PNG,
}

// ProfileServiceConfig controls avatar uploads.
type ProfileServiceConfig struct {
	AvatarMaxBytes   int64
	AvatarPublicPath string
}

// ProfileService reads and edits the caller's profile.
type ProfileService struct {
	repo      profileRepository
	avatars   avatarStore
	cfg       ProfileServiceConfig
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewProfileService constructs the profile service.
func NewProfileService(repo profileRepository, avatars avatarStore, cfg ProfileServiceConfig, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AvatarMaxBytes <= 0 {
		cfg.AvatarMaxBytes = 2 << 20
	}
	if cfg.AvatarPublicPath == "" {
		cfg.AvatarPublicPath = "/uploads/avatars"
	}
	return &ProfileService{repo: repo, avatars: avatars, cfg: cfg, validator: validate, logger: logger, now: time.Now}
}

// Me returns the caller's profile.
func (s *ProfileService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to load profile")
	}
	return user, nil
}

// Update applies the non-nil fields of req. Empty strings clear optional fields.
func (s *ProfileService) Update(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid profile payload")
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "full_name cannot be blank")
		}
		user.FullName = name
	}
	if req.CollegeName != nil {
		user.CollegeName = trimmedOrNil(req.CollegeName)
	}
	if req.Department != nil {
		user.Department = trimmedOrNil(req.Department)
	}
	if req.Phone != nil {
		user.Phone = trimmedOrNil(req.Phone)
	}
	if req.Place != nil {
		user.Place = trimmedOrNil(req.Place)
	}
	if req.YearOfStudy != nil {
		user.YearOfStudy = trimmedOrNil(req.YearOfStudy)
	}
	if req.DOB != nil {
		if strings.TrimSpace(*req.DOB) == "" {
			user.DOB = nil
		} else {
			dob, err := models.ParseDate(*req.DOB)
			if err != nil {
				return nil, appErrors.Validation(err, "invalid dob")
			}
			user.DOB = &dob
		}
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, notFoundOr(err, "user not found", "failed to update profile")
	}
	return user, nil
}

// UploadAvatar stores an image read from r and points the profile at it. The
// format is sniffed from the bytes; the image is auto-oriented, shrunk to fit
// avatarSide and re-encoded, which also drops embedded metadata.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID string, r io.Reader) (*models.User, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.AvatarMaxBytes+1))
	if err != nil {
		return nil, appErrors.Validation(err, "unable to read avatar")
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "avatar file is empty")
	}
	if int64(len(data)) > s.cfg.AvatarMaxBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("avatar exceeds %d bytes", s.cfg.AvatarMaxBytes))
	}
	contentType := mimetype.Detect(data).String()
	format, ok := avatarFormats[contentType]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "avatar must be a JPEG, PNG or GIF image")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, appErrors.Validation(err, "avatar is not a readable image")
	}
	if b := img.Bounds(); b.Dx() > avatarSide || b.Dy() > avatarSide {
		img = imaging.Fit(img, avatarSide, avatarSide, imaging.Lanczos)
	}
	var encoded bytes.Buffer
	if err := imaging.Encode(&encoded, img, format, imaging.JPEGQuality(85)); err != nil {
		return nil, appErrors.Internal(err, "failed to encode avatar")
	}

	ext := "png"
	if format == imaging.JPEG {
		ext = "jpg"
	}
	name := fmt.Sprintf("%s-%d.%s", userID, s.now().UnixNano(), ext)
	stored, err := s.avatars.SaveLimited(name, &encoded, s.cfg.AvatarMaxBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("avatar exceeds %d bytes", s.cfg.AvatarMaxBytes))
		}
		return nil, appErrors.Internal(err, "failed to store avatar")
	}

	url := strings.TrimRight(s.cfg.AvatarPublicPath, "/") + "/" + stored
	if err := s.repo.UpdateAvatar(ctx, userID, url); err != nil {
		_ = s.avatars.Delete(stored)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update avatar")
	}
	applog.For(ctx, s.logger).Info("avatar updated", zap.String("user_id", userID), zap.String("content_type", contentType))
	return s.Me(ctx, userID)
}
