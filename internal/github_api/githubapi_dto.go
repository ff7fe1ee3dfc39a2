// Gói dto cung cấp các đối tượng truyền dữ liệu cho dự án
// Chuyển đổi phản hồi GraphQL và REST API của GitHub thành cấu trúc

package githubapi

import "time"

type PageInfo struct {
	EndCursor   string `json:"endCursor"`
	HasNextPage bool   `json:"hasNextPage"`
}

type StarNode struct {
	NameWithOwner string `json:"nameWithOwner"`
}

type StarEdge struct {
	StarredAt time.Time `json:"starredAt"`
}

// StarredPage là một trang kết quả starredRepositories, sắp xếp theo
// thời gian star giảm dần
type StarredPage struct {
	Nodes    []StarNode `json:"nodes"`
	Edges    []StarEdge `json:"edges"`
	PageInfo PageInfo   `json:"pageInfo"`
}

type viewerStarredResponse struct {
	Data struct {
		Viewer struct {
			StarredRepositories StarredPage `json:"starredRepositories"`
		} `json:"viewer"`
	} `json:"data"`
}

type viewerLoginResponse struct {
	Data struct {
		Viewer struct {
			Login string `json:"login"`
		} `json:"viewer"`
	} `json:"data"`
}

type repoTopicNode struct {
	Topic struct {
		Name string `json:"name"`
	} `json:"topic"`
}

type OwnRepo struct {
	NameWithOwner   string `json:"nameWithOwner"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
	RepositoryTopics struct {
		Nodes []repoTopicNode `json:"nodes"`
	} `json:"repositoryTopics"`
}

type viewerReposResponse struct {
	Data struct {
		Viewer struct {
			Repositories struct {
				Nodes    []OwnRepo `json:"nodes"`
				PageInfo PageInfo  `json:"pageInfo"`
			} `json:"repositories"`
		} `json:"viewer"`
	} `json:"data"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// RepoResponse là metadata của một repository từ REST API
type RepoResponse struct {
	Id              int64     `json:"id"`
	FullName        string    `json:"full_name"`
	StargazersCount int64     `json:"stargazers_count"`
	Language        string    `json:"language"`
	Description     string    `json:"description"`
	Topics          []string  `json:"topics"`
	UpdatedAt       time.Time `json:"updated_at"`
}
