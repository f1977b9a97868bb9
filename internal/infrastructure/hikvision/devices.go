package hikvision

import (
	"context"
	"errors"
)

const doorCommandOpen = "open"

// ListDevices fetches one page of the branch device listing. pageIndex starts at 1.
func (c *Client) ListDevices(ctx context.Context, pageIndex, pageSize int) (*DevicePage, error) {
	var page DevicePage
	if err := c.call(ctx, PathDevicesGet, pageRequest{PageIndex: pageIndex, PageSize: pageSize}, &page); err != nil {
		return nil, err
	}
	if page.PageIndex == 0 {
		page.PageIndex = pageIndex
	}
	return &page, nil
}

// CountDevices returns the total number of devices the provider reports for the branch.
func (c *Client) CountDevices(ctx context.Context) (int, error) {
	page, err := c.ListDevices(ctx, 1, 1)
	if err != nil {
		return 0, err
	}
	return page.TotalCount, nil
}

// RemoteOpenDoor sends a one-shot unlock command to a door.
func (c *Client) RemoteOpenDoor(ctx context.Context, serialNo string, doorNo int) error {
	if serialNo == "" {
		return errors.New("serial number is required")
	}
	return c.call(ctx, PathDoorControl, doorControlRequest{
		SerialNo: serialNo,
		DoorNo:   doorNo,
		Command:  doorCommandOpen,
	}, nil)
}
