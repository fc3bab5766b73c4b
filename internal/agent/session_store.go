package agent

import (
	"sync"

	"supporter-agent-go/internal/flow"
	"supporter-agent-go/internal/model"
)

// Session 是一个活跃会话的进程内运行时：
// 会话上下文快照，加上驱动它的主流程状态机与可选的信息检索子流程。
// baseVersion 记录缓存上下文装载时的持久化版本，
// 会话内的本地递增不影响结束时写回的 CAS 期望值。
type Session struct {
	model.SessionContext

	machine         *flow.Machine
	infoFlow        *flow.InfoSeekingFlow
	interruptedFlow model.FlowType
	baseVersion     int64
}

// SessionStore 接口定义了活跃会话注册表的操作。
type SessionStore interface {
	Put(s *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
	ByUser(userID string) []*Session
}

// memorySessionStore 是 SessionStore 的进程内实现。
// 会话只存在于单个进程内，结束时统一刷回持久层。
type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore 创建一个新的进程内会话注册表。
func NewSessionStore() SessionStore {
	return &memorySessionStore{sessions: make(map[string]*Session)}
}

func (s *memorySessionStore) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.SessionID] = sess
}

func (s *memorySessionStore) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

func (s *memorySessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *memorySessionStore) ByUser(userID string) []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0)
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out
}
