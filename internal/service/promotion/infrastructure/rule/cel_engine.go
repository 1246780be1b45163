// internal/service/promotion/infrastructure/rule/cel_engine.go
package rule

import (
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	"petshop/internal/service/promotion/domain"
)

// CELRuleEngine 是 domain.RuleEngine 的 CEL 实现。
// 管理员在券上写的附加条件（例如 "subtotal >= 200000.0 && item_count >= 2"）
// 用 CEL 表达式表达，在这里编译、缓存并求值。
// 这是一个典型的适配器：把第三方表达式引擎适配到领域接口上。
type CELRuleEngine struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program // 按规则原文缓存编译结果
}

// NewCELRuleEngine 创建规则引擎，声明规则可见的全部变量。
func NewCELRuleEngine() (*CELRuleEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("item_count", cel.IntType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cel environment")
	}
	return &CELRuleEngine{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Evaluate 实现了 domain.RuleEngine 接口。空规则视为通过。
func (e *CELRuleEngine) Evaluate(ruleDefinition string, fact domain.Fact) (bool, error) {
	if ruleDefinition == "" {
		return true, nil
	}

	prg, err := e.program(ruleDefinition)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]interface{}(fact))
	if err != nil {
		return false, errors.Wrap(err, "rule evaluation failed")
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("rule did not evaluate to bool: %T", out.Value())
	}
	return result, nil
}

func (e *CELRuleEngine) program(ruleDefinition string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[ruleDefinition]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(ruleDefinition)
	if iss != nil && iss.Err() != nil {
		// 规则定义本身可能存在语法错误
		return nil, errors.Wrap(iss.Err(), "invalid rule definition")
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build rule program")
	}

	e.mu.Lock()
	e.programs[ruleDefinition] = prg
	e.mu.Unlock()
	return prg, nil
}
