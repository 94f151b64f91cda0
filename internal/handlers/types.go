package handlers

import "time"

// LinkBody is the public representation of a short link.
type LinkBody struct {
	ID                int64     `json:"id"`
	ShortCode         string    `doc:"The short code" example:"twitch-tv-url" json:"short_code"`
	ShortURL          string    `doc:"The full short URL" example:"http://localhost:8888/twitch-tv-url" json:"short_url"`
	LongURL           string    `doc:"The destination URL" example:"https://twitch.tv" json:"long_url"`
	FriendlyName      string    `doc:"A name for the owner" example:"My Twitch" json:"friendly_name"`
	IsShortCodeCustom bool      `doc:"Whether the owner chose the code" json:"is_short_code_custom"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateLinkBody is the input for creating a short link.
type CreateLinkBody struct {
	FriendlyName      string `doc:"A name for the owner" example:"Twitch TV" json:"friendly_name,omitempty" maxLength:"40"`
	IsShortCodeCustom bool   `doc:"Use short_code instead of a generated code" json:"is_short_code_custom,omitempty"`
	ShortCode         string `doc:"Custom short code, 8-20 of [A-Za-z0-9-]" example:"twitch-tv-url" json:"short_code,omitempty"`
	LongURL           string `doc:"The URL to shorten" example:"https://www.twitch.tv/" json:"long_url"`
}

type CreateLinkRequest struct {
	Body CreateLinkBody
}

type LinkResponse struct {
	Body struct {
		Item LinkBody `json:"item"`
	}
}

// PaginationBody describes where a page sits in the full result set.
type PaginationBody struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
}

type ListRequest struct {
	Page     int `default:"1" doc:"1-based page number" minimum:"1" query:"page"`
	PageSize int `default:"15" doc:"Items per page" minimum:"1" query:"page_size" maximum:"100"`
}

type ListLinksResponse struct {
	Body struct {
		Items      []LinkBody     `json:"items"`
		Pagination PaginationBody `json:"pagination"`
	}
}

type ShortCodeRequest struct {
	ShortCode string `doc:"The short code" example:"twitch-tv-url" path:"shortCode"`
}

type UpdateLinkRequest struct {
	ShortCode string `doc:"The short code" path:"shortCode"`
	Body      struct {
		FriendlyName *string `json:"friendly_name,omitempty" maxLength:"40"`
		LongURL      *string `json:"long_url,omitempty"`
	}
}

type NoContentResponse struct{}

// RedirectResponse sends the client to the long URL.
type RedirectResponse struct {
	Status      int
	Location    string `header:"Location"`
	CacheStatus string `doc:"HIT when served from cache" header:"X-Cache-Status"`
}

// QRCodeLink is the link a QR code points at.
type QRCodeLink struct {
	ShortCode string `json:"short_code"`
	ShortURL  string `json:"short_url"`
}

type QRCodeBody struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Image         string         `json:"image,omitempty"`
	Customization map[string]any `json:"customization"`
	UserID        int64          `json:"userId"`
	LinkID        int64          `json:"linkId"`
	Link          QRCodeLink     `json:"link"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

type CreateQRCodeRequest struct {
	Body struct {
		LinkShortCode string          `doc:"Short code of an existing link" json:"linkShortCode,omitempty"`
		LinkToCreate  *CreateLinkBody `doc:"A link to create for the QR code" json:"linkToCreate,omitempty"`
		QRCode        struct {
			Image         string         `doc:"Image URL" example:"https://i.imgur.com/CF422bf.jpeg" json:"image,omitempty"`
			Customization map[string]any `json:"customization,omitempty"`
		} `json:"qrCode"`
	}
}

type CreateQRCodeResponse struct {
	Body struct {
		CreatedItem QRCodeBody `json:"createdItem"`
	}
}

type QRCodeIDRequest struct {
	ID int64 `doc:"QR code id" path:"id"`
}

type QRCodeResponse struct {
	Body struct {
		Item QRCodeBody `json:"item"`
	}
}

type ListQRCodesResponse struct {
	Body struct {
		Items      []QRCodeBody   `json:"items"`
		Pagination PaginationBody `json:"pagination"`
	}
}

type UpdateQRCodeRequest struct {
	ID   int64 `doc:"QR code id" path:"id"`
	Body struct {
		Title         *string        `json:"title,omitempty" maxLength:"40" minLength:"1"`
		Image         *string        `json:"image,omitempty"`
		Customization map[string]any `json:"customization,omitempty"`
	}
}

type UpdateQRCodeResponse struct {
	Body struct {
		UpdatedItem QRCodeBody `json:"updatedItem"`
	}
}

type UserBody struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SignupRequest struct {
	Body struct {
		Email     string `example:"you@example.com" json:"email" maxLength:"256"`
		FirstName string `example:"John" json:"first_name" maxLength:"128" minLength:"1"`
		LastName  string `example:"Doe" json:"last_name,omitempty" maxLength:"128"`
		Password1 string `json:"password1" minLength:"8"`
		Password2 string `doc:"Must repeat password1" json:"password2" minLength:"8"`
	}
}

type UpdateUserRequest struct {
	Body struct {
		FirstName string `example:"John" json:"first_name" maxLength:"128" minLength:"1"`
		LastName  string `example:"Doe" json:"last_name,omitempty" maxLength:"128"`
	}
}

type ChangeEmailRequest struct {
	Body struct {
		Email string `example:"you@example.com" json:"email" maxLength:"256"`
	}
}

type ChangePasswordRequest struct {
	Body struct {
		OldPassword  string `json:"old_password"`
		NewPassword1 string `json:"new_password1" minLength:"8"`
		NewPassword2 string `doc:"Must repeat new_password1" json:"new_password2" minLength:"8"`
	}
}

type UserResponse struct {
	Body struct {
		Item UserBody `json:"item"`
	}
}

type TokenRequest struct {
	Body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
}

type RefreshTokenRequest struct {
	Body struct {
		RefreshToken string `json:"refresh_token"`
	}
}

type TokenResponse struct {
	Body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `example:"bearer" json:"token_type"`
	}
}
