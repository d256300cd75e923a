package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"foodshare/internal/models"
	"foodshare/internal/service"
)

type (
	User        = models.User
	FoodListing = models.FoodListing
	Message     = models.Message
	Transaction = models.Transaction
	Review      = models.Review

	UserPatch        = models.UserPatch
	ListingPatch     = models.ListingPatch
	TransactionPatch = models.TransactionPatch

	RegisterInput          = service.RegisterInput
	CreateListingInput     = service.CreateListingInput
	SendMessageInput       = service.SendMessageInput
	CreateTransactionInput = service.CreateTransactionInput
	CreateReviewInput      = service.CreateReviewInput
	StoredImage            = service.StoredImage
)

// Session is returned by Register and Login.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// FeatureFlags mirrors GET /api/feature-flags.
type FeatureFlags struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// ListingQuery filters GET /api/food-listings. Lat and Lng switch to a radius
// search; RadiusKm defaults to 10 on the server.
type ListingQuery struct {
	Category  string
	Query     string
	Available *bool
	Lat       *float64
	Lng       *float64
	RadiusKm  *float64
}

func (q ListingQuery) values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Available != nil {
		v.Set("available", strconv.FormatBool(*q.Available))
	}
	if q.Lat != nil && q.Lng != nil {
		v.Set("lat", formatFloat(*q.Lat))
		v.Set("lng", formatFloat(*q.Lng))
		if q.RadiusKm != nil {
			v.Set("radius", formatFloat(*q.RadiusKm))
		}
	}
	return v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func userPath(id uint) string {
	return fmt.Sprintf("/api/users/%d", id)
}

func listingPath(id uint) string {
	return fmt.Sprintf("/api/food-listings/%d", id)
}

const (
	listingsPath     = "/api/food-listings"
	messagesPath     = "/api/messages"
	transactionsPath = "/api/transactions"
	mePath           = "/api/auth/me"
)

func queryOne[T any](ctx context.Context, c *Client, path string, params url.Values) (*T, error) {
	var out T
	if err := c.Query(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func queryList[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var out []T
	if err := c.Query(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mutateOne[T any](ctx context.Context, c *Client, method, path string, in any, invalidate ...string) (*T, error) {
	var out T
	if err := c.mutate(ctx, method, path, in, &out, invalidate...); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- auth ---

func (c *Client) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	return c.startSession(ctx, "/api/auth/register", in)
}

// Login accepts a username or an email as identifier.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	return c.startSession(ctx, "/api/auth/login", map[string]string{
		"identifier": identifier,
		"password":   password,
	})
}

func (c *Client) startSession(ctx context.Context, path string, in any) (*Session, error) {
	var s Session
	if err := c.mutate(ctx, http.MethodPost, path, in, &s); err != nil {
		return nil, err
	}
	var id uint
	if s.User != nil {
		id = s.User.ID
	}
	c.SetSession(s.Token, id)
	return &s, nil
}

// Logout revokes the session server side and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.mutate(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.SetSession("", 0)
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	return queryOne[User](ctx, c, mePath, nil)
}

// --- listings ---

func (c *Client) ListFoodListings(ctx context.Context, q ListingQuery) ([]FoodListing, error) {
	return queryList[FoodListing](ctx, c, listingsPath, q.values())
}

func (c *Client) GetFoodListing(ctx context.Context, id uint) (*FoodListing, error) {
	return queryOne[FoodListing](ctx, c, listingPath(id), nil)
}

func (c *Client) UserFoodListings(ctx context.Context, userID uint) ([]FoodListing, error) {
	return queryList[FoodListing](ctx, c, userPath(userID)+"/food-listings", nil)
}

func (c *Client) CreateFoodListing(ctx context.Context, in CreateListingInput) (*FoodListing, error) {
	return mutateOne[FoodListing](ctx, c, http.MethodPost, listingsPath, in,
		listingsPath, userPath(c.UserID())+"/food-listings")
}

func (c *Client) UpdateFoodListing(ctx context.Context, id uint, patch ListingPatch) (*FoodListing, error) {
	return mutateOne[FoodListing](ctx, c, http.MethodPut, listingPath(id), patch,
		listingsPath, userPath(c.UserID())+"/food-listings")
}

func (c *Client) DeleteFoodListing(ctx context.Context, id uint) error {
	return c.mutate(ctx, http.MethodDelete, listingPath(id), nil, nil,
		listingsPath, userPath(c.UserID())+"/food-listings")
}

// --- messages ---

func (c *Client) Messages(ctx context.Context) ([]Message, error) {
	return queryList[Message](ctx, c, messagesPath, nil)
}

func (c *Client) Conversation(ctx context.Context, otherUserID uint) ([]Message, error) {
	return queryList[Message](ctx, c, fmt.Sprintf("%s/%d", messagesPath, otherUserID), nil)
}

func (c *Client) SendMessage(ctx context.Context, in SendMessageInput) (*Message, error) {
	return mutateOne[Message](ctx, c, http.MethodPost, messagesPath, in, messagesPath)
}

func (c *Client) MarkMessageRead(ctx context.Context, id uint) error {
	return c.mutate(ctx, http.MethodPut, fmt.Sprintf("%s/%d/read", messagesPath, id), nil, nil, messagesPath)
}

// --- transactions ---

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	return queryList[Transaction](ctx, c, transactionsPath, nil)
}

func (c *Client) GetTransaction(ctx context.Context, id uint) (*Transaction, error) {
	return queryOne[Transaction](ctx, c, fmt.Sprintf("%s/%d", transactionsPath, id), nil)
}

func (c *Client) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*Transaction, error) {
	return mutateOne[Transaction](ctx, c, http.MethodPost, transactionsPath, in, transactionsPath)
}

func (c *Client) UpdateTransaction(ctx context.Context, id uint, patch TransactionPatch) (*Transaction, error) {
	return mutateOne[Transaction](ctx, c, http.MethodPut, fmt.Sprintf("%s/%d", transactionsPath, id), patch, transactionsPath)
}

// --- reviews ---

func (c *Client) UserReviews(ctx context.Context, userID uint) ([]Review, error) {
	return queryList[Review](ctx, c, userPath(userID)+"/reviews", nil)
}

func (c *Client) ListingReviews(ctx context.Context, listingID uint) ([]Review, error) {
	return queryList[Review](ctx, c, listingPath(listingID)+"/reviews", nil)
}

func (c *Client) CreateReview(ctx context.Context, in CreateReviewInput) (*Review, error) {
	return mutateOne[Review](ctx, c, http.MethodPost, "/api/reviews", in,
		userPath(in.ReceiverID)+"/reviews", listingPath(in.ListingID)+"/reviews")
}

// --- users ---

func (c *Client) GetUser(ctx context.Context, id uint) (*User, error) {
	return queryOne[User](ctx, c, userPath(id), nil)
}

func (c *Client) UpdateProfile(ctx context.Context, patch UserPatch) (*User, error) {
	return mutateOne[User](ctx, c, http.MethodPut, "/api/users/profile", patch, userPath(c.UserID()), mePath)
}

// --- images ---

// UploadImage sends content as the multipart "image" field.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, content io.Reader) (*StoredImage, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("buffer image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	data, err := c.do(ctx, http.MethodPost, "/api/uploads/images", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	var img StoredImage
	if err := json.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("decode upload: %w", err)
	}
	return &img, nil
}

// --- misc ---

func (c *Client) FeatureFlags(ctx context.Context) (*FeatureFlags, error) {
	return queryOne[FeatureFlags](ctx, c, "/api/feature-flags", nil)
}
