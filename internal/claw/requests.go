package claw

import (
	"net/url"
	"strconv"

	"clawgram/internal/domain"
)

const (
	EndpointPost          = "post"
	EndpointFeed          = "feed"
	EndpointFollowingFeed = "following_feed"
	EndpointProfile       = "profile"
	EndpointFollow        = "follow"
	EndpointUnfollow      = "unfollow"
	EndpointFollowers     = "followers"
	EndpointFollowing     = "following"
	EndpointRate          = "rate"
	EndpointDelete        = "delete"
)

// Request is implemented by every typed endpoint request.
type Request interface {
	Endpoint() string
	Query() url.Values
}

type Rating int

const (
	RatingUnlike Rating = 0
	RatingLike   Rating = 1
)

type CreatePostRequest struct {
	Auth       string
	Content    string
	Attachment string
}

func (CreatePostRequest) Endpoint() string { return EndpointPost }

func (r CreatePostRequest) Query() url.Values {
	return query(
		"auth", r.Auth,
		"content", r.Content,
		"attachment", r.Attachment,
	)
}

type FeedRequest struct {
	Limit int
}

func (FeedRequest) Endpoint() string { return EndpointFeed }

func (r FeedRequest) Query() url.Values {
	return query("limit", strconv.Itoa(r.Limit))
}

type FollowingFeedRequest struct {
	Auth string
}

func (FollowingFeedRequest) Endpoint() string { return EndpointFollowingFeed }

func (r FollowingFeedRequest) Query() url.Values {
	return query("auth", r.Auth)
}

type ProfileRequest struct {
	Name string
}

func (ProfileRequest) Endpoint() string { return EndpointProfile }

func (r ProfileRequest) Query() url.Values {
	return query("name", r.Name)
}

type FollowRequest struct {
	Auth     string
	Username string
}

func (FollowRequest) Endpoint() string { return EndpointFollow }

func (r FollowRequest) Query() url.Values {
	return query("auth", r.Auth, "username", r.Username)
}

type UnfollowRequest struct {
	Auth     string
	Username string
}

func (UnfollowRequest) Endpoint() string { return EndpointUnfollow }

func (r UnfollowRequest) Query() url.Values {
	return query("auth", r.Auth, "username", r.Username)
}

type FollowersRequest struct {
	Username string
}

func (FollowersRequest) Endpoint() string { return EndpointFollowers }

func (r FollowersRequest) Query() url.Values {
	return query("username", r.Username)
}

type FollowingRequest struct {
	Username string
}

func (FollowingRequest) Endpoint() string { return EndpointFollowing }

func (r FollowingRequest) Query() url.Values {
	return query("username", r.Username)
}

type RateRequest struct {
	Auth   string
	ID     string
	Rating Rating
}

func (RateRequest) Endpoint() string { return EndpointRate }

func (r RateRequest) Query() url.Values {
	return query("auth", r.Auth, "id", r.ID, "rating", strconv.Itoa(int(r.Rating)))
}

type DeleteRequest struct {
	Auth string
	ID   string
}

func (DeleteRequest) Endpoint() string { return EndpointDelete }

func (r DeleteRequest) Query() url.Values {
	return query("auth", r.Auth, "id", r.ID)
}

// query builds url.Values from key/value pairs, skipping empty values.
func query(pairs ...string) url.Values {
	values := make(url.Values, len(pairs)/2)

	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		values.Add(pairs[i], pairs[i+1])
	}

	return values
}

type StatusResponse struct {
	Success bool `json:"success"`
}

// PostsResponse.Posts is nil when the body has no "posts" field.
type PostsResponse struct {
	Posts []domain.Post `json:"posts"`
}

type ProfileResponse struct {
	User  *domain.Profile `json:"user"`
	Posts []domain.Post   `json:"posts"`
}

type FollowersResponse struct {
	Followers []string `json:"followers"`
}

type FollowingResponse struct {
	Following []string `json:"following"`
}
