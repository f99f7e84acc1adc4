package api

import (
	"github.com/a2aproject/a2a-go/a2a"

	"github.com/matiasleandrokruk/hellomcp/internal/version"
)

// NewAgentCard describes the greeting agent reachable at publicURL.
func NewAgentCard(publicURL string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               "Hello MCP Agent",
		Description:        "MCP 서버의 인사 도구를 사용해 한국어로 인사하는 에이전트",
		URL:                publicURL,
		Version:            version.Version,
		PreferredTransport: a2a.TransportProtocolJSONRPC,
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"text"},
		Capabilities:       a2a.AgentCapabilities{Streaming: true},
		Skills: []a2a.AgentSkill{
			{
				ID:          "korean_greeting",
				Name:        "한국어 인사",
				Description: "이름을 받아 MCP 서버를 통해 인사말을 만듭니다",
				Tags:        []string{"greeting", "korean", "mcp"},
				Examples:    []string{"김철수에게 인사해줘", "이영희, 박민수에게 인사해줘", "안녕하세요"},
			},
		},
	}
}
