package database

type Repository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (User, error)
	UpdateAccount(params UpdateAccountParams) (User, error)
	UpdatePassword(accountId int, passwordHash string) error
	GetAccountById(accountId int) (User, error)
	GetAccountByEmail(email string) (User, error)
	CreateChannel(params CreateChannelParams) (Channel, error)
	GetChannelByExternalId(externalId string) (Channel, error)
	ListChannels() ([]Channel, error)
	AddChannelMember(channelId, accountId int) error
	RemoveChannelMember(channelId, accountId int) error
	IsChannelMember(channelId, accountId int) bool
	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessageById(messageId int) (Message, error)
	ListMessagesByChannel(channelId int) ([]Message, error)
	UpdateMessageContent(messageId int, content string) (Message, error)
	DeleteMessage(messageId int) error
	CreatePost(params CreatePostParams) (Post, error)
	GetPostById(postId int) (Post, error)
	ListPosts() ([]Post, error)
	TogglePostLike(postId, accountId int) (Post, error)
	AddPostComment(postId, accountId int, content string) (Post, error)
	CreateInitiative(params CreateInitiativeParams) (Initiative, error)
	ListInitiatives(category, status string) ([]Initiative, error)
	CreateOrganization(params CreateOrganizationParams) (Organization, error)
	ListOrganizations(category string) ([]Organization, error)
	CreateResource(params CreateResourceParams) (Resource, error)
	ListResources(category string) ([]Resource, error)
	CreateOpportunity(params CreateOpportunityParams) (Opportunity, error)
	ListOpportunities(category string) ([]Opportunity, error)
}
