package database

// generationColumns is the column list scanned by ScanGeneration callers.
const generationColumns = `id, user_id, COALESCE(tool_type, ''), status, COALESCE(metadata, '{}'::jsonb),
	output_file_url, thumbnail_url, error_message, completed_at, created_at, updated_at`

// Metadata updates use a top-level jsonb merge so existing keys survive.
const (
	SelectProcessingByRequestID = `
		SELECT ` + generationColumns + `
		FROM ai_generations
		WHERE metadata->>'fal_request_id' = $1 AND status = 'processing'
		ORDER BY created_at DESC
		LIMIT 1`

	SelectGenerationByID = `
		SELECT ` + generationColumns + `
		FROM ai_generations
		WHERE id = $1`

	SelectModelByRequestID = `
		SELECT COALESCE(metadata->>'model', '')
		FROM ai_generations
		WHERE metadata->>'fal_request_id' = $1
		ORDER BY created_at DESC
		LIMIT 1`

	CompleteGeneration = `
		UPDATE ai_generations
		SET status = 'completed',
			output_file_url = $2,
			thumbnail_url = COALESCE(NULLIF($3, ''), thumbnail_url),
			metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
			completed_at = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`

	FailGeneration = `
		UPDATE ai_generations
		SET status = 'failed',
			error_message = $2,
			metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
			completed_at = $4,
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`

	MergeGenerationMetadata = `
		UPDATE ai_generations
		SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1`

	ApplyProcessingResult = `
		UPDATE ai_generations
		SET output_file_url = COALESCE(NULLIF($2, ''), output_file_url),
			thumbnail_url = COALESCE(NULLIF($3, ''), thumbnail_url),
			metadata = COALESCE(metadata, '{}'::jsonb) || $4::jsonb,
			updated_at = NOW()
		WHERE id = $1`
)
