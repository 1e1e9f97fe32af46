package core

import "os"

// EnvironmentVariable 决定运行环境名称的环境变量
const EnvironmentVariable = "APP_ENV"

// Environment 运行环境
type Environment interface {
	Name() string
	IsDevelopment() bool
	IsProduction() bool
	IsStaging() bool
}

type environment struct {
	name string
}

// NewEnvironment 创建环境
func NewEnvironment(name string) Environment {
	return &environment{name: name}
}

// EnvironmentFromEnv 从 APP_ENV 读取环境名称，未设置时为 development
func EnvironmentFromEnv() Environment {
	if name := os.Getenv(EnvironmentVariable); name != "" {
		return NewEnvironment(name)
	}
	return NewEnvironment("development")
}

func (e *environment) Name() string        { return e.name }
func (e *environment) IsDevelopment() bool { return e.name == "development" }
func (e *environment) IsProduction() bool  { return e.name == "production" }
func (e *environment) IsStaging() bool     { return e.name == "staging" }
