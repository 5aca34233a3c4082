package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susji/sol0/span"
	"github.com/susji/sol0/token"
)

func sp() span.Span {
	return span.Span{}
}

func TestTokensFind(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(token.New(token.DecNum, sp(), "1")).
		Add(token.New(token.DecNum, sp(), "2")).
		Add(token.New(token.Id, sp(), "one")).
		Add(token.New(token.DecNum, sp(), "5")).
		Add(token.New(token.Id, sp(), "two")).
		Add(token.New(token.HexNum, sp(), "0x123"))

	first := toks.Find(token.Id)
	toks.Pop()
	second := toks.Find(token.Id)
	toks.Pop()
	third := toks.Find(token.HexNum, token.DecNum)
	toks.Pop()
	assert.Nil(t, toks.Peek())

	require.NotNil(t, first)
	require.NotNil(t, second)
	require.NotNil(t, third)
	assert.Equal(t, "one", first.Value())
	assert.Equal(t, "two", second.Value())
	assert.Equal(t, "0x123", third.Value())
	assert.Equal(t, "0x123", toks.Last().Value())
}

func TestAccept(t *testing.T) {
	toks := &token.Tokens{}
	toks.Add(token.New(token.Id, sp(), "storage")).
		Add(token.New(token.Semicolon, sp(), ";"))

	assert.False(t, toks.AcceptWord("memory"))
	assert.True(t, toks.AcceptWord("storage"))
	assert.Error(t, toks.Accept(token.Comma))
	assert.NoError(t, toks.Accept(token.Semicolon))
	assert.ErrorIs(t, toks.Accept(token.Semicolon), token.EOT)
}

func TestLookup(t *testing.T) {
	k, ok := token.Lookup(":=")
	require.True(t, ok)
	assert.Equal(t, token.Kind(token.ColonAssign), k)
	_, ok = token.Lookup("true")
	assert.False(t, ok)
	_, ok = token.Lookup("@")
	assert.False(t, ok)
}
