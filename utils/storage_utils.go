package utils

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Storage — клиент объектного хранилища (PSCloud, S3-совместимый сервис).
type Storage struct {
	client   *s3.S3
	bucket   string
	endpoint string
}

func NewStorage(accessKey, secretKey, bucket, region, endpoint string) (*Storage, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(region),
		Endpoint: aws.String(endpoint),
		Credentials: credentials.NewStaticCredentials(
			accessKey, secretKey, "",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create storage session: %v", err)
	}

	return &Storage{
		client:   s3.New(sess),
		bucket:   bucket,
		endpoint: endpoint,
	}, nil
}

// UploadFile загружает файл в хранилище и возвращает публичный URL.
func (s *Storage) UploadFile(file []byte, fileName string, folder string) (string, error) {
	filePath := fmt.Sprintf("%s/%s", folder, fileName)

	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(filePath),
		Body:          bytes.NewReader(file),
		ContentLength: aws.Int64(int64(len(file))),
		ContentType:   aws.String(contentType),
		ACL:           aws.String("public-read"), // Публичный доступ
	})
	if err != nil {
		return "", fmt.Errorf("unable to upload file to S3: %v", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, filePath), nil
}
