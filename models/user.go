// models/user.go
package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is keyed by the identity provider uid, which doubles as the referral code.
type User struct {
	ID            string    `json:"id" bson:"_id"`
	Email         string    `json:"email" bson:"email"`
	Name          string    `json:"name" bson:"name"`
	FBLink        string    `json:"fbLink,omitempty" bson:"fb_link,omitempty"`
	Balance       float64   `json:"balance" bson:"balance"`
	Role          string    `json:"role" bson:"role"`
	IsBanned      bool      `json:"isBanned" bson:"is_banned"`
	IsActive      bool      `json:"isActive" bson:"is_active"`
	ReferralCount int       `json:"referralCount" bson:"referral_count"`
	ReferredBy    string    `json:"referredBy,omitempty" bson:"referred_by,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	KYCSubmitted  bool      `json:"kycSubmitted" bson:"kyc_submitted"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	KYC           *KYC      `json:"kyc,omitempty" bson:"kyc_data,omitempty"`
}

// KYC holds the identity details collected before the first withdrawal.
type KYC struct {
	Name      string    `json:"name" bson:"name"`
	Address   string    `json:"address" bson:"address"`
	DOB       string    `json:"dob" bson:"dob"`
	Education string    `json:"education" bson:"education"`
	IP        string    `json:"ip" bson:"ip"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DefaultName derives a display name from the local part of an email address.
func DefaultName(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

// ReferralGrant describes the bonuses paid when a new user signs up with a referral code.
type ReferralGrant struct {
	ReferrerID    string
	SignupBonus   float64
	ReferralBonus float64
}

// Referral is the public view of a referred user on the dashboard.
type Referral struct {
	Name   string    `json:"name"`
	Joined time.Time `json:"joined"`
}

type LoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
	RefCode string `json:"refCode,omitempty"`
	Name    string `json:"name,omitempty"`
	FBLink  string `json:"fb_link,omitempty"`
}

type KYCRequest struct {
	Name      string `form:"name" validate:"required"`
	Address   string `form:"address" validate:"required"`
	Phone     string `form:"phone" validate:"required"`
	DOB       string `form:"dob" validate:"required"`
	Education string `form:"education"`
}

// UsersPage is one page of the admin user listing.
type UsersPage struct {
	Users   []User `json:"users"`
	Page    int    `json:"page"`
	HasNext bool   `json:"hasNext"`
	HasPrev bool   `json:"hasPrev"`
}
