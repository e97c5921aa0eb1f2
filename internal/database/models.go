package database

import "time"

type User struct {
	Id              int
	Name            string
	Email           string
	Location        string
	SupportedCauses []string
	ProfilePicture  string
	PasswordHash    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Channel struct {
	Id          int
	ExternalId  string
	Name        string
	Description string
	Private     bool
	Members     []User
	CreatedAt   time.Time
}

type Message struct {
	Id          int
	ChannelId   int
	ChannelExId string
	SenderId    int
	SenderName  string
	SenderEmail string
	Content     string
	CreatedAt   time.Time
}

type Comment struct {
	Id        int
	UserId    int
	UserName  string
	Content   string
	CreatedAt time.Time
}

type Post struct {
	Id         int
	AuthorId   int
	AuthorName string
	Content    string
	ImageUrl   string
	Likes      []int
	Comments   []Comment
	CreatedAt  time.Time
}

type Initiative struct {
	Id          int
	Title       string
	Description string
	Category    string
	Status      string
	Tags        []string
	CreatorId   int
	CreatorName string
	CreatedAt   time.Time
}

type Organization struct {
	Id          int
	Name        string
	Description string
	Category    string
	Website     string
	CreatorId   int
	CreatedAt   time.Time
}

type Resource struct {
	Id          int
	Title       string
	Description string
	Category    string
	Url         string
	CreatorId   int
	CreatedAt   time.Time
}

type Opportunity struct {
	Id          int
	Title       string
	Description string
	Category    string
	Location    string
	CreatorId   int
	CreatedAt   time.Time
}

type CreateAccountParams struct {
	Name         string
	Email        string
	PasswordHash string
}

type UpdateAccountParams struct {
	UserId          int
	Name            string
	Location        string
	SupportedCauses []string
	ProfilePicture  string
}

type CreateChannelParams struct {
	Name        string
	Description string
	Private     bool
	ExternalId  string
	CreatorId   int
}

type CreateMessageParams struct {
	ChannelExId string
	SenderId    int
	Content     string
}

type CreatePostParams struct {
	AuthorId int
	Content  string
	ImageUrl string
}

type CreateInitiativeParams struct {
	Title       string
	Description string
	Category    string
	Status      string
	Tags        []string
	CreatorId   int
}

type CreateOrganizationParams struct {
	Name        string
	Description string
	Category    string
	Website     string
	CreatorId   int
}

type CreateResourceParams struct {
	Title       string
	Description string
	Category    string
	Url         string
	CreatorId   int
}

type CreateOpportunityParams struct {
	Title       string
	Description string
	Category    string
	Location    string
	CreatorId   int
}
