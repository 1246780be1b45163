// internal/service/user/infrastructure/rest_auth_client.go
package infrastructure

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"

	"petshop/internal/pkg/httpclient"
	"petshop/internal/service/user/domain"
)

// RestAuthClient 调用外部认证后端。
// 接口是历史遗留的表单风格：POST 表单编码，响应体里的 status 字段
// 为 200 才算成功，HTTP 状态码不可靠。
type RestAuthClient struct {
	client  *httpclient.Client
	baseURL string
}

func NewRestAuthClient(client *httpclient.Client, baseURL string) *RestAuthClient {
	return &RestAuthClient{client: client, baseURL: baseURL}
}

// authResponse 的业务载荷包在 data 信封里，角色字段在信封内。
type authResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Role int `json:"role"`
	} `json:"data"`
}

func (c *RestAuthClient) post(ctx context.Context, action string, form url.Values) (*authResponse, error) {
	body, err := c.client.PostForm(ctx, c.baseURL+"/user.ctr/"+action, form)
	if err != nil {
		return nil, errors.Wrapf(err, "auth backend call %s failed", action)
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to decode auth backend response")
	}
	return &resp, nil
}

// Login 校验用户名密码，成功时返回账号信息（含服务端角色）
func (c *RestAuthClient) Login(ctx context.Context, username, password string) (*domain.Account, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.post(ctx, "login", form)
	if err != nil {
		return nil, err
	}
	if resp.Status != 200 {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.Account{Username: username, Role: resp.Data.Role}, nil
}

// ForgotPassword 触发重置密码流程
func (c *RestAuthClient) ForgotPassword(ctx context.Context, username string) error {
	form := url.Values{}
	form.Set("username", username)

	resp, err := c.post(ctx, "forgot_password", form)
	if err != nil {
		return err
	}
	if resp.Status != 200 {
		return errors.Errorf("forgot_password rejected: %s", resp.Message)
	}
	return nil
}

// SendOTP 请求发送一次性验证码
func (c *RestAuthClient) SendOTP(ctx context.Context, username string) error {
	form := url.Values{}
	form.Set("username", username)

	resp, err := c.post(ctx, "send_otp", form)
	if err != nil {
		return err
	}
	if resp.Status != 200 {
		return errors.Errorf("send_otp rejected: %s", resp.Message)
	}
	return nil
}

// VerifyOTP 校验一次性验证码
func (c *RestAuthClient) VerifyOTP(ctx context.Context, username, otp string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("otp", otp)

	resp, err := c.post(ctx, "verify_otp", form)
	if err != nil {
		return err
	}
	if resp.Status != 200 {
		return domain.ErrOTPMismatch
	}
	return nil
}
