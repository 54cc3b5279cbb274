package synapse

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	defaultStorageLocation = 1
	messageFileName        = "message.html"
)

type message struct {
	Recipients   []string `json:"recipients"`
	Subject      string   `json:"subject"`
	FileHandleID string   `json:"fileHandleId"`
}

type multipartUploadRequest struct {
	ConcreteType      string `json:"concreteType"`
	ContentMD5Hex     string `json:"contentMD5Hex"`
	FileName          string `json:"fileName"`
	FileSizeBytes     int64  `json:"fileSizeBytes"`
	PartSizeBytes     int64  `json:"partSizeBytes"`
	ContentType       string `json:"contentType"`
	StorageLocationID int64  `json:"storageLocationId"`
	GeneratePreview   bool   `json:"generatePreview"`
}

type multipartUploadStatus struct {
	UploadID           string `json:"uploadId"`
	State              string `json:"state"`
	PartsState         string `json:"partsState"`
	ResultFileHandleID string `json:"resultFileHandleId"`
}

type presignedURLBatchRequest struct {
	UploadID    string  `json:"uploadId"`
	PartNumbers []int64 `json:"partNumbers"`
}

type presignedURLBatchResponse struct {
	Parts []struct {
		PartNumber    int64             `json:"partNumber"`
		URL           string            `json:"uploadPresignedUrl"`
		SignedHeaders map[string]string `json:"signedHeaders"`
	} `json:"partPresignedUrls"`
}

type addPartResponse struct {
	State        string `json:"addPartState"`
	ErrorMessage string `json:"errorMessage"`
}

// SendMessage sends a Synapse message to the recipients. The message body is uploaded as a
// file with the given content type (e.g. "text/html") and the message references the
// resulting file handle.
func (c *Client) SendMessage(ctx context.Context, recipients []string, subject, body, contentType string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	fileHandleID, err := c.uploadString(ctx, body, contentType)
	if err != nil {
		return fmt.Errorf("error uploading message body (%w)", err)
	}

	msg := message{
		Recipients:   recipients,
		Subject:      subject,
		FileHandleID: fileHandleID,
	}

	return c.post(ctx, fmt.Sprintf("%v/message", c.repo), msg, nil)
}

// uploadString stores the content as a single part multipart upload and returns the file
// handle ID.
func (c *Client) uploadString(ctx context.Context, content, contentType string) (string, error) {
	data := []byte(content)
	sum := md5.Sum(data)
	md5hex := hex.EncodeToString(sum[:])
	size := int64(len(data))

	rq := multipartUploadRequest{
		ConcreteType:      "org.sagebionetworks.repo.model.file.MultipartUploadRequest",
		ContentMD5Hex:     md5hex,
		FileName:          messageFileName,
		FileSizeBytes:     size,
		PartSizeBytes:     max(size, 5*1024*1024),
		ContentType:       contentType,
		StorageLocationID: defaultStorageLocation,
		GeneratePreview:   false,
	}

	var status multipartUploadStatus
	if err := c.post(ctx, fmt.Sprintf("%v/file/multipart", c.file), rq, &status); err != nil {
		return "", err
	}

	if status.State == "COMPLETED" && status.ResultFileHandleID != "" {
		return status.ResultFileHandleID, nil
	}

	// ... upload the single part
	batch := presignedURLBatchRequest{
		UploadID:    status.UploadID,
		PartNumbers: []int64{1},
	}

	var presigned presignedURLBatchResponse
	uri := fmt.Sprintf("%v/file/multipart/%v/presigned/url/batch", c.file, url.PathEscape(status.UploadID))
	if err := c.post(ctx, uri, batch, &presigned); err != nil {
		return "", err
	}

	if len(presigned.Parts) == 0 {
		return "", fmt.Errorf("no presigned URL for upload %v", status.UploadID)
	}

	part := presigned.Parts[0]
	if err := c.putPart(ctx, part.URL, part.SignedHeaders, data); err != nil {
		return "", err
	}

	var added addPartResponse
	uri = fmt.Sprintf("%v/file/multipart/%v/add/%v?partMD5Hex=%v", c.file, url.PathEscape(status.UploadID), part.PartNumber, md5hex)
	if err := c.put(ctx, uri, nil, &added); err != nil {
		return "", err
	} else if added.State != "ADD_SUCCESS" {
		return "", fmt.Errorf("error adding part %v to upload %v (%v)", part.PartNumber, status.UploadID, added.ErrorMessage)
	}

	// ... complete
	var completed multipartUploadStatus
	uri = fmt.Sprintf("%v/file/multipart/%v/complete", c.file, url.PathEscape(status.UploadID))
	if err := c.put(ctx, uri, nil, &completed); err != nil {
		return "", err
	}

	if completed.State != "COMPLETED" || completed.ResultFileHandleID == "" {
		return "", fmt.Errorf("upload %v not completed (%v)", status.UploadID, completed.State)
	}

	return completed.ResultFileHandleID, nil
}

// Presigned URLs carry their own credentials in the query string, so the part is PUT without
// the Synapse bearer token.
func (c *Client) putPart(ctx context.Context, uri string, headers map[string]string, data []byte) error {
	rq, err := http.NewRequestWithContext(ctx, http.MethodPut, uri, bytes.NewReader(data))
	if err != nil {
		return err
	}

	for k, v := range headers {
		rq.Header.Set(k, v)
	}

	response, err := c.upload.Do(rq)
	if err != nil {
		return err
	}

	defer response.Body.Close()

	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode/100 != 2 {
		return fmt.Errorf("error uploading part (%v)", response.Status)
	}

	return nil
}
