// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"
)

// App adapts Model to the tea.Model interface. Model.Update returns the
// concrete type so internal handlers and tests compose without assertions;
// this wrapper exists only for tea.NewProgram.
type App struct {
	Model
}

// NewApp wraps a Model for use with tea.NewProgram.
func NewApp(m Model) App {
	return App{Model: m}
}

func (a App) Init() tea.Cmd {
	return a.Model.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.Model.Update(msg)
	a.Model = m
	return a, cmd
}

func (a App) View() string {
	return a.Model.View()
}
