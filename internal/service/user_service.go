package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"pharmacy-backend/internal/middleware"
	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"
	"pharmacy-backend/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type RegisterDoctorRequest struct {
	FullName       string `json:"full_name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"required"`
	Password       string `json:"password" binding:"required,min=6"`
	RegistrationNo string `json:"registration_no"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type DoctorResponse struct {
	ID             string `json:"id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	RegistrationNo string `json:"registration_no"`
	CreatedAt      string `json:"created_at"`
}

type CreateClinicAddressRequest struct {
	ClinicName  string `json:"clinic_name" binding:"required"`
	FullAddress string `json:"full_address" binding:"required"`
	Phone       string `json:"phone"`
	IsDefault   bool   `json:"is_default"`
}

type UserService interface {
	Register(ctx context.Context, req RegisterDoctorRequest) (*DoctorResponse, error)
	Login(ctx context.Context, req LoginRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetProfile(ctx context.Context, doctorID uuid.UUID) (*DoctorResponse, error)
	AddClinicAddress(ctx context.Context, doctorID uuid.UUID, req CreateClinicAddressRequest) (*model.ClinicAddress, error)
	ListClinicAddresses(ctx context.Context, doctorID uuid.UUID) ([]model.ClinicAddress, error)
}

type userService struct {
	doctorRepo repository.DoctorRepository
	clinicRepo repository.ClinicAddressRepository
}

func NewUserService(doctorRepo repository.DoctorRepository, clinicRepo repository.ClinicAddressRepository) UserService {
	return &userService{doctorRepo: doctorRepo, clinicRepo: clinicRepo}
}

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,4}$`)

func toDoctorResponse(doctor *model.Doctor) *DoctorResponse {
	return &DoctorResponse{
		ID:             doctor.ID.String(),
		FullName:       doctor.FullName,
		Email:          doctor.Email,
		Phone:          doctor.Phone,
		RegistrationNo: doctor.RegistrationNo,
		CreatedAt:      doctor.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) Register(ctx context.Context, req RegisterDoctorRequest) (*DoctorResponse, error) {
	if !emailRegex.MatchString(req.Email) {
		return nil, apperror.NewValidation("invalid email format")
	}

	if _, err := s.doctorRepo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.NewConflict("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	doctor := &model.Doctor{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		Password:       string(hashedPassword),
		RegistrationNo: req.RegistrationNo,
	}
	if err := s.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}

	return toDoctorResponse(doctor), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	doctor, err := s.doctorRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewValidation("invalid email or password")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(doctor.Password), []byte(req.Password)); err != nil {
		return nil, apperror.NewValidation("invalid email or password")
	}

	return s.issueTokens(ctx, doctor.ID)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	stored, err := s.doctorRepo.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, apperror.NewValidation("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.doctorRepo.DeleteRefreshToken(ctx, refreshToken)
		return nil, apperror.NewValidation("refresh token expired")
	}

	// Rotate: a refresh token is single-use
	if err := s.doctorRepo.DeleteRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, stored.DoctorID)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.doctorRepo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) issueTokens(ctx context.Context, doctorID uuid.UUID) (*TokenResponse, error) {
	claims := jwt.MapClaims{
		"sub": doctorID.String(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(middleware.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := &model.RefreshToken{
		DoctorID:  doctorID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := s.doctorRepo.CreateRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{AccessToken: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) GetProfile(ctx context.Context, doctorID uuid.UUID) (*DoctorResponse, error) {
	doctor, err := s.doctorRepo.GetByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NewNotFound("doctor")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return toDoctorResponse(doctor), nil
}

func (s *userService) AddClinicAddress(ctx context.Context, doctorID uuid.UUID, req CreateClinicAddressRequest) (*model.ClinicAddress, error) {
	address := &model.ClinicAddress{
		DoctorID:    doctorID,
		ClinicName:  req.ClinicName,
		FullAddress: req.FullAddress,
		Phone:       req.Phone,
		IsDefault:   req.IsDefault,
	}
	if err := s.clinicRepo.Create(ctx, address); err != nil {
		return nil, fmt.Errorf("failed to create clinic address: %w", err)
	}
	return address, nil
}

func (s *userService) ListClinicAddresses(ctx context.Context, doctorID uuid.UUID) ([]model.ClinicAddress, error) {
	return s.clinicRepo.ListByDoctor(ctx, doctorID)
}
