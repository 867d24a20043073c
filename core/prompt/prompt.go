package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/qq642160575-ship-it/rag/core/errors"
	"github.com/qq642160575-ship-it/rag/pkg/schema"
)

// template 单个提示词模板，system/user 任一可以为空
type template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Manager 提示词管理器。
// 从目录加载 <name>.yaml 模板，按 {变量名} 占位符填充后生成消息列表。
// 模板按名称缓存，并发安全。
type Manager struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*template
}

// NewManager 创建提示词管理器，dir为模板目录
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		cache: make(map[string]*template),
	}
}

// Messages 加载指定模板并填充变量，返回system/user消息列表。
// 内容为空的消息不会出现在结果中。
func (m *Manager) Messages(name string, vars map[string]string) ([]*schema.Message, error) {
	tmpl, err := m.load(name)
	if err != nil {
		return nil, err
	}

	system := render(tmpl.System, vars)
	user := render(tmpl.User, vars)

	messages := make([]*schema.Message, 0, 2)
	if system != "" {
		messages = append(messages, schema.SystemMessage(system))
	}
	if user != "" {
		messages = append(messages, schema.UserMessage(user))
	}
	return messages, nil
}

func (m *Manager) load(name string) (*template, error) {
	m.mu.RLock()
	tmpl, ok := m.cache[name]
	m.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	path := filepath.Join(m.dir, name+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrPromptNotFound, "prompt file not found: %s", path)
		}
		return nil, errors.Newf(errors.ErrPromptNotFound, "failed to read prompt file %s: %v", path, err)
	}

	tmpl = &template{}
	if err := yaml.Unmarshal(data, tmpl); err != nil {
		return nil, errors.Newf(errors.ErrPromptNotFound, "failed to parse prompt file %s: %v", path, err)
	}

	m.mu.Lock()
	m.cache[name] = tmpl
	m.mu.Unlock()
	return tmpl, nil
}

// render 替换模板中的 {变量名} 占位符
func render(tmpl string, vars map[string]string) string {
	if tmpl == "" || len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, fmt.Sprintf("{%s}", k), v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
