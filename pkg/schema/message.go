package schema

// RoleType 消息角色类型
type RoleType string

const (
	System    RoleType = "system"
	User      RoleType = "user"
	Assistant RoleType = "assistant"
)

// Message 表示对话消息
type Message struct {
	// Role 消息角色：system, user, assistant
	Role RoleType `json:"role"`
	// Content 文本内容
	Content string `json:"content,omitempty"`
}

// SystemMessage 创建系统消息
func SystemMessage(content string) *Message {
	return &Message{Role: System, Content: content}
}

// UserMessage 创建用户消息
func UserMessage(content string) *Message {
	return &Message{Role: User, Content: content}
}
