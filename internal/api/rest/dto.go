package rest

import (
	"time"

	"github.com/eventfinder/ef-aggregator/internal/store/schema"
)

// TagDTO is one normalized tag on an event
type TagDTO struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EventDTO is the API representation of one event. Internal ids never leave
// the server; events are addressed by public id.
type EventDTO struct {
	PublicID    string                 `json:"public_id"`
	Name        string                 `json:"name"`
	ShortName   string                 `json:"short_name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Address     *string                `json:"address,omitempty"`
	City        *string                `json:"city,omitempty"`
	State       *string                `json:"state,omitempty"`
	StartTime   *time.Time             `json:"start_time,omitempty"`
	EndTime     *time.Time             `json:"end_time,omitempty"`
	ImgURL      *string                `json:"img_url,omitempty"`
	BackdropURL *string                `json:"backdrop_url,omitempty"`
	PrimaryType string                 `json:"primary_type"`
	Tags        []TagDTO               `json:"tags"`
	Metadata    map[string]interface{} `json:"metadata_by_source,omitempty"`
}

// UserDTO is the public profile of a user
type UserDTO struct {
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// EventListResponse is the paginated browse payload
type EventListResponse struct {
	Events []EventDTO `json:"events"`
	Total  int64      `json:"total"`
	Page   int        `json:"page"`
}

// UserEventsResponse is a user's profile page payload
type UserEventsResponse struct {
	User   UserDTO    `json:"user"`
	Events []EventDTO `json:"events"`
}

// toEventDTO maps a stored event to its API shape. Metadata is included only
// when withMetadata is set (detail views).
func toEventDTO(event *schema.Event, withMetadata bool) EventDTO {
	tags := make([]TagDTO, 0, len(event.Tags))
	for _, tag := range event.Tags {
		tags = append(tags, TagDTO{Name: tag.TagName, Type: string(tag.TagType)})
	}

	dto := EventDTO{
		PublicID:    event.PublicID,
		Name:        event.Name,
		ShortName:   event.ShortName,
		Description: event.Description,
		Address:     event.Address,
		City:        event.City,
		State:       event.State,
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		ImgURL:      event.ImgURL,
		BackdropURL: event.BackdropURL,
		PrimaryType: string(event.PrimaryType),
		Tags:        tags,
	}
	if withMetadata {
		dto.Metadata = event.MetadataBySource
	}
	return dto
}

// toUserDTO maps a stored user to its public profile
func toUserDTO(user *schema.User) UserDTO {
	return UserDTO{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		ImageURL:    user.ImageURL,
	}
}
