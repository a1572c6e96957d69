// Package policy decides what a principal may do to a resource.
package policy

import (
	"scholarhub/internal/models"
)

// Action is what the principal wants to do.
type Action string

const (
	Read   Action = "read"
	Write  Action = "write"
	Delete Action = "delete"
)

// Kind is the resource type being accessed.
type Kind string

const (
	Application Kind = "application"
	Document    Kind = "document"
	Listing     Kind = "listing"
	Ad          Kind = "ad"
	Applicant   Kind = "applicant"
	User        Kind = "user"
)

// Resource identifies what is being accessed and who owns it.
// OwnerID is the user id at the end of the ownership chain, so a
// document belongs to the user owning its applicant profile.
type Resource struct {
	Kind    Kind
	OwnerID int64
}

// ApplicationResource describes an application for policy checks.
func ApplicationResource(a *models.Application) Resource {
	return Resource{Kind: Application, OwnerID: a.ApplicantUserID}
}

// DocumentResource describes a document for policy checks.
func DocumentResource(d *models.Document) Resource {
	return Resource{Kind: Document, OwnerID: d.ApplicantUserID}
}

// ApplicantResource describes an applicant profile for policy checks.
func ApplicantResource(a *models.Applicant) Resource {
	return Resource{Kind: Applicant, OwnerID: a.UserID}
}

// UserResource describes a user account for policy checks.
func UserResource(userID int64) Resource {
	return Resource{Kind: User, OwnerID: userID}
}

// ListingResource describes any job or scholarship.
func ListingResource(createdBy int64) Resource {
	return Resource{Kind: Listing, OwnerID: createdBy}
}

// AdResource describes an ad.
func AdResource(createdBy int64) Resource {
	return Resource{Kind: Ad, OwnerID: createdBy}
}

// staffReadable are the kinds staff may read without a permission flag.
var staffReadable = map[Kind]bool{
	Application: true,
	Document:    true,
	Listing:     true,
	Ad:          true,
	Applicant:   true,
}

// staffWritable are the kinds staff may write, subject to RequiredPermission.
var staffWritable = map[Kind]bool{
	Application: true,
	Document:    true,
	Listing:     true,
	Ad:          true,
	Applicant:   true,
}

// RequiredPermission returns the staff permission gating an action, or ""
// when the action needs none.
func RequiredPermission(kind Kind, action Action) string {
	switch action {
	case Read:
		if kind == User {
			return models.PermViewUsers
		}
		return ""
	case Write:
		switch kind {
		case Application:
			return models.PermEditApplications
		case Document:
			return models.PermVerifyDocuments
		case Listing:
			return models.PermManageListings
		case Ad:
			return models.PermManageAds
		}
		return ""
	case Delete:
		switch kind {
		case Application, Document:
			return models.PermDeleteApplications
		case Listing:
			return models.PermManageListings
		case Ad:
			return models.PermManageAds
		}
		return ""
	}
	return ""
}

// CanAccess applies the rules in order: admins always pass; staff pass
// for their resource kinds when they hold the gating permission;
// applicants pass only on resources they own, plus public reads of
// listings and ads. Everything else is denied.
func CanAccess(p *models.Principal, r Resource, a Action) bool {
	if p == nil {
		return false
	}

	switch p.Role {
	case models.RoleAdmin:
		return true

	case models.RoleStaff:
		switch a {
		case Read:
			if r.Kind == User {
				return p.HasPermission(models.PermViewUsers) || r.OwnerID == p.UserID
			}
			return staffReadable[r.Kind]
		case Write, Delete:
			if r.Kind == User {
				return false
			}
			if !staffWritable[r.Kind] {
				return false
			}
			if perm := RequiredPermission(r.Kind, a); perm != "" {
				return p.HasPermission(perm)
			}
			return true
		}
		return false

	case models.RoleApplicant:
		if a == Read && (r.Kind == Listing || r.Kind == Ad) {
			return true
		}
		if r.Kind == Listing || r.Kind == Ad {
			return false
		}
		return r.OwnerID != 0 && r.OwnerID == p.UserID
	}

	return false
}
