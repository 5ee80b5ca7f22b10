package coldstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/qiniu/go-sdk/v7/auth/qbox"
	"github.com/qiniu/go-sdk/v7/storage"
)

// QiniuConfig 七牛云配置
type QiniuConfig struct {
	AccessKey string `json:",optional"`
	SecretKey string `json:",optional"`
	Bucket    string `json:",optional"`
	Zone      string `json:",optional"`
	UseHTTPS  bool   `json:",optional"`
}

// QiniuStorage 七牛云对象存储
type QiniuStorage struct {
	config   QiniuConfig
	mac      *qbox.Mac
	uploader *storage.FormUploader
}

// NewQiniuStorage 创建七牛云存储
func NewQiniuStorage(c QiniuConfig) *QiniuStorage {
	cfg := storage.Config{
		Zone:          zoneOf(c.Zone),
		UseHTTPS:      c.UseHTTPS,
		UseCdnDomains: false,
	}
	return &QiniuStorage{
		config:   c,
		mac:      qbox.NewMac(c.AccessKey, c.SecretKey),
		uploader: storage.NewFormUploader(&cfg),
	}
}

// Put 上传对象，scope 带 key 表示允许覆盖同名文件
func (s *QiniuStorage) Put(ctx context.Context, key string, data []byte) (string, error) {
	putPolicy := storage.PutPolicy{
		Scope: fmt.Sprintf("%s:%s", s.config.Bucket, key),
	}
	upToken := putPolicy.UploadToken(s.mac)

	ret := storage.PutRet{}
	err := s.uploader.Put(ctx, &ret, upToken, key, bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return "", fmt.Errorf("qiniu upload: %w", err)
	}
	return fmt.Sprintf("qiniu://%s/%s", s.config.Bucket, ret.Key), nil
}

// zoneOf 根据配置选择机房
func zoneOf(zone string) *storage.Zone {
	switch zone {
	case "Huadong", "z0":
		return &storage.ZoneHuadong
	case "Huabei", "z1":
		return &storage.ZoneHuabei
	case "Beimei", "na0":
		return &storage.ZoneBeimei
	case "Xinjiapo", "as0":
		return &storage.ZoneXinjiapo
	default:
		return &storage.ZoneHuanan
	}
}
