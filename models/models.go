package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - InterviewSession from session.go
// - Question from question.go
// - Response from response.go
// - SessionAnalytics from analytics.go

// Database schema overview:
// 1. users - Managed by token-based authentication
// 2. interview_sessions - One practice run per user through a question sequence
// 3. questions - AI-generated (or fallback) questions, one per sequence number
// 4. responses - Candidate answers with STAR-method scores, one per question
// 5. session_analytics - Aggregate scores computed at session completion
