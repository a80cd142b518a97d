// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.ChatModel,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	mockProvider := mock.NewMockProvider()
//	vectors, err := mockProvider.Embedder().EmbedTexts(ctx, passages)
//
//	// Custom behavior injection
//	chat := mock.NewMockChatModel()
//	chat.GenerateFunc = func(ctx context.Context, system, user string) (string, error) {
//	    return "", errors.New("unavailable")
//	}
//
//	// Check call counts
//	count := chat.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: bag-of-words vectors, so texts sharing content words score as similar
//   - MockChatModel: echoes the user message back
//   - MockProvider: aggregates mock embedder and chat model
package mock
