package enum

// ── Order lifecycle (values stored in the remote document) ──

const (
	OrderStatusPending    = "Pending"
	OrderStatusProcessing = "Processing"
	OrderStatusCompleted  = "Completed"
)

// ── Session views ──

const (
	ViewCustomer = "customer"
	ViewKitchen  = "kitchen"
)

// ── Upload queue job states ──

const (
	UploadStatusPending   = "pending"
	UploadStatusUploading = "uploading"
	UploadStatusSuccess   = "success"
	UploadStatusFailed    = "failed"
)
