package mess

import (
	"bytes"
	"encoding/json"
	"time"

	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
)

type complaintRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl"`
}

type complaintStatusRequest struct {
	Status string `json:"status"`
}

type replyRequest struct {
	Message string `json:"message"`
}

type feedbackRequest struct {
	MealType    string `json:"mealType"`
	Rating      int    `json:"rating"`
	Description string `json:"description"`
}

type menuRequest struct {
	Days    map[string][]string `json:"days"`
	Timings []string            `json:"timings"`
}

type pollRequest struct {
	Question  string     `json:"question"`
	Options   []string   `json:"options"`
	PollType  string     `json:"pollType"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type voteRequest struct {
	PollID          string    `json:"pollId" validate:"required"`
	SelectedOptions selection `json:"selectedOptions"`
}

// selection は単一の文字列と文字列配列のどちらでも受け付ける。
type selection []string

func (s *selection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*s = selection{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(trimmed, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

type noticeRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

type personResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type replyResponse struct {
	SecretaryID string    `json:"secretaryId,omitempty"`
	StudentID   string    `json:"studentId,omitempty"`
	AuthorName  string    `json:"authorName,omitempty"`
	Message     string    `json:"message"`
	RepliedAt   time.Time `json:"repliedAt"`
}

type complaintResponse struct {
	ID         string          `json:"id"`
	StudentID  string          `json:"studentId"`
	Student    *personResponse `json:"student,omitempty"`
	Text       string          `json:"text"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	ResolvedAt *time.Time      `json:"resolvedAt,omitempty"`
	Replies    []replyResponse `json:"replies"`
}

type complaintEnvelope struct {
	Message   string            `json:"message"`
	Complaint complaintResponse `json:"complaint"`
}

type feedbackResponse struct {
	ID          string          `json:"id"`
	StudentID   string          `json:"studentId"`
	Student     *personResponse `json:"student,omitempty"`
	MealType    string          `json:"mealType"`
	Rating      int             `json:"rating"`
	Description string          `json:"description,omitempty"`
	Day         string          `json:"day"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type feedbackEnvelope struct {
	Message  string           `json:"message"`
	Feedback feedbackResponse `json:"feedback"`
}

type menuResponse struct {
	Days      map[string]messdomain.MealSlots `json:"days"`
	Timings   messdomain.MealSlots            `json:"timings"`
	UpdatedAt *time.Time                      `json:"updatedAt,omitempty"`
}

type menuEnvelope struct {
	Message string       `json:"message"`
	Menu    menuResponse `json:"menu"`
}

type menuEmailResponse struct {
	Message    string `json:"message"`
	Recipients int    `json:"recipients"`
}

type optionResponse struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type voterResponse struct {
	UserID     string    `json:"userId"`
	Selections []int     `json:"selections"`
	VotedAt    time.Time `json:"votedAt"`
}

type pollResponse struct {
	ID        string           `json:"id"`
	Question  string           `json:"question"`
	PollType  string           `json:"pollType"`
	Options   []optionResponse `json:"options"`
	CreatedBy string           `json:"createdBy"`
	Creator   *personResponse  `json:"creator,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
	Voters    []voterResponse  `json:"voters"`
}

type pollEnvelope struct {
	Message string       `json:"message"`
	Poll    pollResponse `json:"poll"`
}

type noticeResponse struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	CreatedBy string          `json:"createdBy"`
	Creator   *personResponse `json:"creator,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type noticeEnvelope struct {
	Message string         `json:"message"`
	Notice  noticeResponse `json:"notice"`
}

func toPersonResponse(p *messdomain.Person) *personResponse {
	if p == nil {
		return nil
	}
	return &personResponse{ID: p.ID, Name: p.Name, Email: p.Email}
}

func toReplyResponse(reply messdomain.Reply) replyResponse {
	resp := replyResponse{AuthorName: reply.Author.Name, Message: reply.Message, RepliedAt: reply.RepliedAt}
	switch reply.Author.Kind {
	case messdomain.AuthorSecretary:
		resp.SecretaryID = reply.Author.ID
	case messdomain.AuthorStudent:
		resp.StudentID = reply.Author.ID
	}
	return resp
}

func toComplaintResponse(c messdomain.Complaint) complaintResponse {
	replies := make([]replyResponse, 0, len(c.Replies))
	for _, reply := range c.Replies {
		replies = append(replies, toReplyResponse(reply))
	}
	return complaintResponse{
		ID:         c.ID,
		StudentID:  c.StudentID,
		Student:    toPersonResponse(c.Student),
		Text:       c.Text,
		ImageURL:   c.ImageURL,
		Status:     string(c.Status),
		CreatedAt:  c.CreatedAt,
		ResolvedAt: c.ResolvedAt,
		Replies:    replies,
	}
}

func toComplaintResponses(items []messdomain.Complaint) []complaintResponse {
	resp := make([]complaintResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toComplaintResponse(item))
	}
	return resp
}

func toFeedbackResponse(f messdomain.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:          f.ID,
		StudentID:   f.StudentID,
		Student:     toPersonResponse(f.Student),
		MealType:    string(f.MealType),
		Rating:      f.Rating,
		Description: f.Comment,
		Day:         f.Day,
		CreatedAt:   f.CreatedAt,
	}
}

func toFeedbackResponses(items []messdomain.Feedback) []feedbackResponse {
	resp := make([]feedbackResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toFeedbackResponse(item))
	}
	return resp
}

func toMenuResponse(m messdomain.Menu) menuResponse {
	return menuResponse{Days: m.Days, Timings: m.Timings, UpdatedAt: m.UpdatedAt}
}

func toPollResponse(p messdomain.Poll) pollResponse {
	options := make([]optionResponse, 0, len(p.Options))
	for _, option := range p.Options {
		options = append(options, optionResponse{ID: option.ID, Text: option.Text, Votes: option.Votes})
	}
	voters := make([]voterResponse, 0, len(p.Voters))
	for _, voter := range p.Voters {
		voters = append(voters, voterResponse{UserID: voter.UserID, Selections: voter.Selections, VotedAt: voter.VotedAt})
	}
	return pollResponse{
		ID:        p.ID,
		Question:  p.Question,
		PollType:  string(p.Type),
		Options:   options,
		CreatedBy: p.CreatedBy,
		Creator:   toPersonResponse(p.Creator),
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
		Voters:    voters,
	}
}

func toNoticeResponse(n messdomain.Notice) noticeResponse {
	return noticeResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		CreatedBy: n.CreatedBy,
		Creator:   toPersonResponse(n.Creator),
		CreatedAt: n.CreatedAt,
	}
}
