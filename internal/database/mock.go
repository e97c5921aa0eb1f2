package database

import (
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdateAccount(params UpdateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) UpdatePassword(accountId int, passwordHash string) error {
	args := m.Called(accountId, passwordHash)
	return args.Error(0)
}
func (m *MockRepository) GetAccountById(accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) CreateChannel(params CreateChannelParams) (Channel, error) {
	args := m.Called(params)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockRepository) GetChannelByExternalId(externalId string) (Channel, error) {
	args := m.Called(externalId)
	return args.Get(0).(Channel), args.Error(1)
}
func (m *MockRepository) ListChannels() ([]Channel, error) {
	args := m.Called()
	return args.Get(0).([]Channel), args.Error(1)
}
func (m *MockRepository) AddChannelMember(channelId, accountId int) error {
	args := m.Called(channelId, accountId)
	return args.Error(0)
}
func (m *MockRepository) RemoveChannelMember(channelId, accountId int) error {
	args := m.Called(channelId, accountId)
	return args.Error(0)
}
func (m *MockRepository) IsChannelMember(channelId, accountId int) bool {
	args := m.Called(channelId, accountId)
	return args.Bool(0)
}
func (m *MockRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessageById(messageId int) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) ListMessagesByChannel(channelId int) ([]Message, error) {
	args := m.Called(channelId)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) UpdateMessageContent(messageId int, content string) (Message, error) {
	args := m.Called(messageId, content)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) DeleteMessage(messageId int) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockRepository) CreatePost(params CreatePostParams) (Post, error) {
	args := m.Called(params)
	return args.Get(0).(Post), args.Error(1)
}
func (m *MockRepository) GetPostById(postId int) (Post, error) {
	args := m.Called(postId)
	return args.Get(0).(Post), args.Error(1)
}
func (m *MockRepository) ListPosts() ([]Post, error) {
	args := m.Called()
	return args.Get(0).([]Post), args.Error(1)
}
func (m *MockRepository) TogglePostLike(postId, accountId int) (Post, error) {
	args := m.Called(postId, accountId)
	return args.Get(0).(Post), args.Error(1)
}
func (m *MockRepository) AddPostComment(postId, accountId int, content string) (Post, error) {
	args := m.Called(postId, accountId, content)
	return args.Get(0).(Post), args.Error(1)
}
func (m *MockRepository) CreateInitiative(params CreateInitiativeParams) (Initiative, error) {
	args := m.Called(params)
	return args.Get(0).(Initiative), args.Error(1)
}
func (m *MockRepository) ListInitiatives(category, status string) ([]Initiative, error) {
	args := m.Called(category, status)
	return args.Get(0).([]Initiative), args.Error(1)
}
func (m *MockRepository) CreateOrganization(params CreateOrganizationParams) (Organization, error) {
	args := m.Called(params)
	return args.Get(0).(Organization), args.Error(1)
}
func (m *MockRepository) ListOrganizations(category string) ([]Organization, error) {
	args := m.Called(category)
	return args.Get(0).([]Organization), args.Error(1)
}
func (m *MockRepository) CreateResource(params CreateResourceParams) (Resource, error) {
	args := m.Called(params)
	return args.Get(0).(Resource), args.Error(1)
}
func (m *MockRepository) ListResources(category string) ([]Resource, error) {
	args := m.Called(category)
	return args.Get(0).([]Resource), args.Error(1)
}
func (m *MockRepository) CreateOpportunity(params CreateOpportunityParams) (Opportunity, error) {
	args := m.Called(params)
	return args.Get(0).(Opportunity), args.Error(1)
}
func (m *MockRepository) ListOpportunities(category string) ([]Opportunity, error) {
	args := m.Called(category)
	return args.Get(0).([]Opportunity), args.Error(1)
}
