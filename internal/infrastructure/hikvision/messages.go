package hikvision

import "context"

// PollMessages returns up to limit events recorded after afterOffset.
func (c *Client) PollMessages(ctx context.Context, afterOffset int64, limit int) (*MessageBatch, error) {
	var batch MessageBatch
	if err := c.call(ctx, PathMessages, messagesRequest{AfterOffset: afterOffset, MaxNumberPerTime: limit}, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// AckMessages confirms every event up to and including offset.
func (c *Client) AckMessages(ctx context.Context, offset int64) error {
	return c.call(ctx, PathMessagesOffset, offsetRequest{Offset: offset}, nil)
}
